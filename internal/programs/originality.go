package programs

import (
	"github.com/manifest-network/mediaproof/internal/anchor"
	"github.com/manifest-network/mediaproof/internal/models"
)

const (
	OriginalityStorageName = "originality-storage"
	OriginalityStorageID   = "4CAZ7URST3D1yMU968iZtEEerN4TCZW2eKDvDWqHSZvE"

	OriginalityAccountType  = "OriginalityAccount"
	OriginalityAccountSpace = 8 + models.OriginalityAccountMaxSize

	OriginalityStoredEvent = "OriginalityStored"
)

// StoreOriginalityArgs are the arguments of store_originality.
type StoreOriginalityArgs struct {
	ImageHash   string
	Originality bool
}

// NewOriginalityStorage declares originality-storage: a per-account registry
// of originality flags keyed by image hash.
func NewOriginalityStorage() *Program {
	p := newProgram(OriginalityStorageName, OriginalityStorageID,
		anchor.ErrorTable{
			{Name: "ImageNotFound", Msg: "Image not found", Err: models.ErrImageNotFound},
			{Name: "TooManyImages", Msg: "Too many images", Err: models.ErrTooManyImages},
		},
		AccountType{Name: OriginalityAccountType, New: func() any { return &models.OriginalityAccount{} }},
	)

	p.register(newInitialize("originality_account", OriginalityAccountType, OriginalityAccountSpace, func() any {
		return &models.OriginalityAccount{ImageCount: 0}
	}))
	p.register(&Instruction{
		Name: "store_originality",
		Accounts: []AccountSpec{
			{Name: "originality_account", Writable: true},
			{Name: "user", Signer: true},
		},
		Handler: storeOriginality,
	})
	p.register(&Instruction{
		Name:     "get_originality",
		View:     true,
		Accounts: []AccountSpec{{Name: "originality_account"}},
		Handler:  getOriginality,
	})
	return p
}

func storeOriginality(c *Context, data []byte) error {
	var args StoreOriginalityArgs
	if err := anchor.DecodeArgs(data, &args); err != nil {
		return err
	}
	var state models.OriginalityAccount
	acct, err := c.Load(0, OriginalityAccountType, &state)
	if err != nil {
		return err
	}
	if err := state.AddOriginalityInfo(models.OriginalityInfo{
		ImageHash:   args.ImageHash,
		Originality: args.Originality,
	}); err != nil {
		return err
	}
	if err := c.Emit(OriginalityStoredEvent, models.OriginalityStored{
		ImageHash:   args.ImageHash,
		Originality: args.Originality,
	}); err != nil {
		return err
	}
	return c.Save(acct, OriginalityAccountType, &state)
}

func getOriginality(c *Context, data []byte) error {
	var args ImageHashArgs
	if err := anchor.DecodeArgs(data, &args); err != nil {
		return err
	}
	var state models.OriginalityAccount
	if _, err := c.Load(0, OriginalityAccountType, &state); err != nil {
		return err
	}
	original, err := state.Originality(args.ImageHash)
	if err != nil {
		return err
	}
	return c.Return(original)
}
