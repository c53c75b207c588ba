package ethereum

import "ensgraph/internal/ens/models"

// Name wrapper fuse bits. The low 16 bits are burned by the name itself, the
// high bits by its parent.
const (
	fuseCannotUnwrap          uint32 = 1 << 0
	fuseCannotBurnFuses       uint32 = 1 << 1
	fuseCannotTransfer        uint32 = 1 << 2
	fuseCannotSetResolver     uint32 = 1 << 3
	fuseCannotSetTTL          uint32 = 1 << 4
	fuseCannotCreateSubdomain uint32 = 1 << 5
	fuseCannotApprove         uint32 = 1 << 6

	fuseParentCannotControl uint32 = 1 << 16
	fuseIsDotEth            uint32 = 1 << 17
	fuseCanExtendExpiry     uint32 = 1 << 18
)

// DecodeFuses expands the packed fuse word into named flags.
func DecodeFuses(fuses uint32) models.Fuses {
	return models.Fuses{
		Parent: map[string]bool{
			"PARENT_CANNOT_CONTROL": fuses&fuseParentCannotControl != 0,
			"IS_DOT_ETH":            fuses&fuseIsDotEth != 0,
			"CAN_EXTEND_EXPIRY":     fuses&fuseCanExtendExpiry != 0,
		},
		Child: map[string]bool{
			"CANNOT_UNWRAP":           fuses&fuseCannotUnwrap != 0,
			"CANNOT_BURN_FUSES":       fuses&fuseCannotBurnFuses != 0,
			"CANNOT_TRANSFER":         fuses&fuseCannotTransfer != 0,
			"CANNOT_SET_RESOLVER":     fuses&fuseCannotSetResolver != 0,
			"CANNOT_SET_TTL":          fuses&fuseCannotSetTTL != 0,
			"CANNOT_CREATE_SUBDOMAIN": fuses&fuseCannotCreateSubdomain != 0,
			"CANNOT_APPROVE":          fuses&fuseCannotApprove != 0,
		},
	}
}
