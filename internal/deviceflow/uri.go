package deviceflow

import (
	"net/url"
	"path"

	"github.com/wrale/arcade-auth/internal/validation"
)

// buildVerificationURIs returns the page players visit to enter their code,
// and the same page with the code prefilled.
func (f *flowImpl) buildVerificationURIs(userCode string) (string, string) {
	baseURL, err := url.Parse(f.baseURL)
	if err != nil {
		return "", ""
	}

	baseURL.Path = path.Join("/", baseURL.Path, f.verificationPath)
	verificationURI := baseURL.String()

	if err := validation.ValidateUserCode(userCode); err != nil {
		return verificationURI, ""
	}

	completeURL := *baseURL
	q := completeURL.Query()
	q.Set("code", userCode)
	completeURL.RawQuery = q.Encode()

	return verificationURI, completeURL.String()
}
