package normalize

import (
	// MD5 is fine here: the checksum gates redundant storage writes,
	// it is not a security boundary.
	"crypto/md5" //nolint:gosec
	"encoding/base64"
	"io"
)

// Checksum computes the base64-encoded MD5 digest of the reader's content
// without buffering it all in memory. The value matches the Content-MD5
// wire form, so it can be compared against upstream archive metadata.
func Checksum(r io.Reader) (string, error) {
	h := md5.New() //nolint:gosec
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// ChecksumBytes computes the checksum of an in-memory body.
func ChecksumBytes(data []byte) string {
	sum := md5.Sum(data) //nolint:gosec
	return base64.StdEncoding.EncodeToString(sum[:])
}
