package grpcservice

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hill399/linkedBtc/internal/interface/grpc/permissions"
	"github.com/hill399/linkedBtc/pkg/macaroons"
	"gopkg.in/macaroon-bakery.v2/bakery"
)

var (
	adminMacaroonFile    = "admin.macaroon"
	userMacaroonFile     = "user.macaroon"
	providerMacaroonFile = "provider.macaroon"
	roMacaroonFile       = "readonly.macaroon"

	macFiles = map[string][]bakery.Op{
		adminMacaroonFile:    permissions.AdminPermissions(),
		userMacaroonFile:     permissions.UserPermissions(),
		providerMacaroonFile: permissions.ProviderPermissions(),
		roMacaroonFile:       permissions.ReadOnlyPermissions(),
	}
)

// genMacaroons generates the macaroon files if they don't already exist.
func genMacaroons(
	ctx context.Context, svc *macaroons.Service, datadir string,
) (bool, error) {
	// Check the macaroons to (re-)generate.
	macaroonsToGenerate := make(map[string][]bakery.Op)
	for filename, ops := range macFiles {
		if pathExists(filepath.Join(datadir, filename)) {
			continue
		}
		macaroonsToGenerate[filename] = ops
	}

	// Don't do anything if all macaroons already exist.
	if len(macaroonsToGenerate) == 0 {
		return false, nil
	}

	// Create the datadir if it doesn't exist.
	if err := makeDirectoryIfNotExists(datadir); err != nil {
		return false, err
	}

	// Create the macaroon files.
	for macFilename, macPermissions := range macaroonsToGenerate {
		macBytes, err := svc.BakeMacaroon(ctx, macPermissions)
		if err != nil {
			return false, err
		}
		macFile := filepath.Join(datadir, macFilename)
		perms := fs.FileMode(0644)
		if macFilename == adminMacaroonFile || macFilename == providerMacaroonFile {
			perms = 0600
		}
		if err := os.WriteFile(macFile, macBytes, perms); err != nil {
			// nolint:all
			os.Remove(macFile)
			return false, err
		}
	}

	return true, nil
}

func makeDirectoryIfNotExists(path string) error {
	if pathExists(path) {
		return nil
	}
	return os.MkdirAll(path, os.ModeDir|0755)
}

func pathExists(path string) bool {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}
