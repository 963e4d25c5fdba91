package service

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"lukechampine.com/blake3"
)

// hashChunkSize keeps memory flat while hashing multi-gigabyte RAW files.
const hashChunkSize = 8192

// ComputeFileHash streams a file through BLAKE3 and returns the lowercase
// hex digest. Two files are duplicates exactly when their digests match.
func ComputeFileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for hashing: %w", path, err)
	}
	defer f.Close()

	return computeHash(f)
}

func computeHash(r io.Reader) (string, error) {
	h := blake3.New(32, nil)
	buf := make([]byte, hashChunkSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read while hashing: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
