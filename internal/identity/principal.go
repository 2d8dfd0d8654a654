package identity

import (
	"crypto/sha256"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"strings"
)

const (
	selfAuthenticatingTag = 0x02
	anonymousTag          = 0x04
	maxPrincipalLength    = 29
)

var principalEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Principal is the raw form of an Internet Computer principal.
type Principal []byte

// Anonymous is the principal used for calls made without a signed-in identity.
var Anonymous = Principal{anonymousTag}

// SelfAuthenticating derives the principal owned by a DER-encoded public key.
func SelfAuthenticating(derPublicKey []byte) Principal {
	sum := sha256.Sum224(derPublicKey)
	p := make(Principal, 0, len(sum)+1)
	p = append(p, sum[:]...)
	return append(p, selfAuthenticatingTag)
}

func (p Principal) IsAnonymous() bool {
	return len(p) == 1 && p[0] == anonymousTag
}

// String returns the textual form: base32 of checksum and bytes, lower case,
// grouped by five characters.
func (p Principal) String() string {
	buf := make([]byte, 4, 4+len(p))
	binary.BigEndian.PutUint32(buf, crc32.ChecksumIEEE(p))
	buf = append(buf, p...)

	enc := strings.ToLower(principalEncoding.EncodeToString(buf))
	var b strings.Builder
	for i := 0; i < len(enc); i += 5 {
		if i > 0 {
			b.WriteByte('-')
		}
		end := min(i+5, len(enc))
		b.WriteString(enc[i:end])
	}
	return b.String()
}

// ParsePrincipal decodes the textual form and verifies its checksum.
func ParsePrincipal(text string) (Principal, error) {
	raw := strings.ToUpper(strings.ReplaceAll(text, "-", ""))
	buf, err := principalEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid principal %q: %w", text, err)
	}
	if len(buf) < 4 || len(buf)-4 > maxPrincipalLength {
		return nil, fmt.Errorf("invalid principal %q: bad length", text)
	}

	p := Principal(buf[4:])
	if binary.BigEndian.Uint32(buf[:4]) != crc32.ChecksumIEEE(p) {
		return nil, fmt.Errorf("invalid principal %q: checksum mismatch", text)
	}
	if p.String() != text {
		return nil, fmt.Errorf("invalid principal %q: not in canonical form", text)
	}
	return p, nil
}
