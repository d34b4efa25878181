package s3

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/ItsOrv/Telegram-Panel-sub000/config"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/store"
)

const uploadTimeout = 30 * time.Second

// Module provides the config backup uploader for fx DI
var Module = fx.Module("s3",
	fx.Provide(NewBackupUploaderFx),
	fx.Invoke(registerBackup),
)

// NewBackupUploaderFx creates the backup uploader for fx DI
func NewBackupUploaderFx(cfg *config.S3Config, logger zerolog.Logger) (*BackupUploader, error) {
	return NewBackupUploader(cfg, logger)
}

// registerBackup hooks snapshot uploads into config persists
func registerBackup(
	lc fx.Lifecycle,
	uploader *BackupUploader,
	st *store.Store,
	logger zerolog.Logger,
) {
	if !uploader.Enabled() {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return uploader.EnsureBucket(ctx)
		},
	})

	st.OnSave(func(data []byte) {
		ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
		defer cancel()

		if err := uploader.UploadSnapshot(ctx, data); err != nil {
			logger.Error().Err(err).Msg("Config snapshot upload failed")
		}
	})
}
