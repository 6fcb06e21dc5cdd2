package tags

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/conneroisu/htmlinject/internal/errors"
)

// Algorithm names a subresource integrity digest.
type Algorithm string

const (
	NoIntegrity Algorithm = ""
	SHA256      Algorithm = "sha256"
	SHA384      Algorithm = "sha384"
	SHA512      Algorithm = "sha512"
)

// ParseAlgorithm accepts sha256, sha384, sha512 or the empty string.
func ParseAlgorithm(s string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case NoIntegrity, SHA256, SHA384, SHA512:
		return a, nil
	}
	return "", errors.NewConfigError(errors.CodeInvalidIntegrity,
		fmt.Sprintf("unsupported integrity algorithm %q", s))
}

func (a Algorithm) newHash() hash.Hash {
	switch a {
	case SHA384:
		return sha512.New384()
	case SHA512:
		return sha512.New()
	default:
		return sha256.New()
	}
}

// Integrity returns "<alg>-<base64 digest>" of the file at path.
func Integrity(a Algorithm, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.WrapIO(err, errors.CodeHash, path)
	}
	defer f.Close()

	h := a.newHash()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.WrapIO(err, errors.CodeHash, path)
	}

	return string(a) + "-" + base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}
