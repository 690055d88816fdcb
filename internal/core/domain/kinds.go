package domain

type ResourceKind string

const (
	KindStorageBucket   ResourceKind = "StorageBucket"
	KindAccessPolicy    ResourceKind = "AccessPolicy"
	KindCertificate     ResourceKind = "Certificate"
	KindCDNDistribution ResourceKind = "CDNDistribution"
)

func (rk ResourceKind) String() string {
	return string(rk)
}
