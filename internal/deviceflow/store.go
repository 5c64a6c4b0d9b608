package deviceflow

import (
	"context"
	"time"

	"github.com/wrale/arcade-auth/internal/auth"
	"github.com/wrale/arcade-auth/internal/codestore"
)

// Store is the subset of the code store the device flow needs
type Store interface {
	GenerateDeviceCode() (codestore.DeviceGrant, error)
	GetCodeInfo(deviceCode string) (codestore.DeviceCode, bool)
	FindByUserCode(userCode string) (codestore.DeviceCode, bool)
	CompleteCode(deviceCode, token string, user auth.Identity) bool
	InvalidateCode(deviceCode string) bool
	CheckHealth(ctx context.Context) error
	Now() time.Time
}

// Authenticator checks a username and password against the account store
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (auth.Identity, error)
}

// TokenIssuer signs session tokens
type TokenIssuer interface {
	Issue(id int64, username string) (string, error)
}

var _ Store = (*codestore.Store)(nil)
