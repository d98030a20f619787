package config

const (
	// SignersMinCount is the smallest signer set a registry accepts at genesis.
	SignersMinCount = 1
	// SignersMaxCount bounds the signer set so evaluation stays linear in a
	// small constant.
	SignersMaxCount = 64

	// BasisPointsDenominator is 100% expressed in basis points.
	BasisPointsDenominator = 10000

	MethodMaxLength        = 64
	CaseReferenceMaxLength = 256
	VersionMaxLength       = 64
)
