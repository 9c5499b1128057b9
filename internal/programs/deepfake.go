package programs

import (
	"github.com/manifest-network/mediaproof/internal/anchor"
	"github.com/manifest-network/mediaproof/internal/models"
)

const (
	DeepfakeStorageName = "deepfake-storage"
	DeepfakeStorageID   = "Aqyqt3mnUVMDErUPvQm9e4LDWHHtJKpLXsBhkumbk6L2"

	DeepfakeAccountType  = "DeepfakeAccount"
	DeepfakeAccountSpace = 8 + models.DeepfakeAccountMaxSize

	ImageAddedEvent = "ImageAdded"
)

// StoreImageArgs are the arguments of store_image.
type StoreImageArgs struct {
	ImageHash     string
	DeepfakeValue uint8
}

// ImageHashArgs are the arguments of the image lookup views.
type ImageHashArgs struct {
	ImageHash string
}

// NewDeepfakeStorage declares deepfake-storage: a per-account registry of
// deepfake values keyed by image hash.
func NewDeepfakeStorage() *Program {
	p := newProgram(DeepfakeStorageName, DeepfakeStorageID,
		anchor.ErrorTable{
			{Name: "InvalidDeepfakeValue", Msg: "Invalid deepfake value", Err: models.ErrInvalidDeepfakeValue},
			{Name: "ImageNotFound", Msg: "Image not found", Err: models.ErrImageNotFound},
			{Name: "TooManyImages", Msg: "Too many images", Err: models.ErrTooManyImages},
		},
		AccountType{Name: DeepfakeAccountType, New: func() any { return &models.DeepfakeAccount{} }},
	)

	p.register(newInitialize("deepfake_account", DeepfakeAccountType, DeepfakeAccountSpace, func() any {
		return &models.DeepfakeAccount{ImageCount: 0}
	}))
	p.register(&Instruction{
		Name: "store_image",
		Accounts: []AccountSpec{
			{Name: "deepfake_account", Writable: true},
			{Name: "user", Signer: true},
		},
		Handler: storeImage,
	})
	p.register(&Instruction{
		Name:     "get_deepfake_value",
		View:     true,
		Accounts: []AccountSpec{{Name: "deepfake_account"}},
		Handler:  getDeepfakeValue,
	})
	p.register(&Instruction{
		Name:     "get_image_timestamp",
		View:     true,
		Accounts: []AccountSpec{{Name: "deepfake_account"}},
		Handler:  getImageTimestamp,
	})
	return p
}

func storeImage(c *Context, data []byte) error {
	var args StoreImageArgs
	if err := anchor.DecodeArgs(data, &args); err != nil {
		return err
	}
	var state models.DeepfakeAccount
	acct, err := c.Load(0, DeepfakeAccountType, &state)
	if err != nil {
		return err
	}
	if !models.ValidDeepfakeValue(args.DeepfakeValue) {
		return models.ErrInvalidDeepfakeValue
	}

	timestamp := uint64(c.UnixTimestamp())
	if err := state.AddImageInfo(models.ImageInfo{
		ImageHash:     args.ImageHash,
		DeepfakeValue: args.DeepfakeValue,
		Timestamp:     timestamp,
	}); err != nil {
		return err
	}
	if err := c.Emit(ImageAddedEvent, models.ImageAdded{
		ImageHash:     args.ImageHash,
		DeepfakeValue: args.DeepfakeValue,
		Timestamp:     timestamp,
	}); err != nil {
		return err
	}
	return c.Save(acct, DeepfakeAccountType, &state)
}

func getDeepfakeValue(c *Context, data []byte) error {
	var args ImageHashArgs
	if err := anchor.DecodeArgs(data, &args); err != nil {
		return err
	}
	var state models.DeepfakeAccount
	if _, err := c.Load(0, DeepfakeAccountType, &state); err != nil {
		return err
	}
	value, err := state.DeepfakeValue(args.ImageHash)
	if err != nil {
		return err
	}
	return c.Return(value)
}

func getImageTimestamp(c *Context, data []byte) error {
	var args ImageHashArgs
	if err := anchor.DecodeArgs(data, &args); err != nil {
		return err
	}
	var state models.DeepfakeAccount
	if _, err := c.Load(0, DeepfakeAccountType, &state); err != nil {
		return err
	}
	ts, err := state.ImageTimestamp(args.ImageHash)
	if err != nil {
		return err
	}
	return c.Return(ts)
}
