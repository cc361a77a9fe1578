package enum

type DomainStatus string

const (
	DomainWarming  DomainStatus = "warming"
	DomainActive   DomainStatus = "active"
	DomainInactive DomainStatus = "inactive"
)

func (t DomainStatus) String() string {
	return string(t)
}

func DecodeDomainStatus(s string) (DomainStatus, bool) {
	switch DomainStatus(s) {
	case DomainWarming, DomainActive, DomainInactive:
		return DomainStatus(s), true
	}
	return "", false
}
