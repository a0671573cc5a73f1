package pipeline

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/blake2b"
)

// FingerprintMode selects how input files are compared between lookups
type FingerprintMode string

const (
	// FingerprintStat compares size and modification time
	FingerprintStat FingerprintMode = "stat"
	// FingerprintContent compares a BLAKE2b-256 digest of every byte
	FingerprintContent FingerprintMode = "content"
)

// FileStamp is the observed state of one input file
type FileStamp struct {
	Path    string    `json:"path"`
	Exists  bool      `json:"exists"`
	Size    int64     `json:"size,omitempty"`
	ModTime time.Time `json:"mod_time,omitempty"`
	Sum     string    `json:"sum,omitempty"`
}

// Fingerprint identifies one state of the input files
type Fingerprint struct {
	Mode   FingerprintMode `json:"mode"`
	Files  []FileStamp     `json:"files"`
	Digest string          `json:"digest"`
}

// Equal reports whether two fingerprints describe the same inputs
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.Digest != "" && f.Digest == other.Digest
}

// Short returns an abbreviated digest for logs
func (f Fingerprint) Short() string {
	if len(f.Digest) > 12 {
		return f.Digest[:12]
	}
	return f.Digest
}

// ComputeFingerprint stamps every path. Missing files are part of the
// state, so creating one later changes the fingerprint.
func ComputeFingerprint(mode FingerprintMode, paths ...string) (Fingerprint, error) {
	if mode == "" {
		mode = FingerprintStat
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		return Fingerprint{}, err
	}

	fp := Fingerprint{Mode: mode, Files: make([]FileStamp, 0, len(paths))}
	for _, p := range paths {
		stamp, err := stampFile(mode, p)
		if err != nil {
			return Fingerprint{}, err
		}
		fp.Files = append(fp.Files, stamp)

		fmt.Fprintf(h, "%s\x00%t\x00", stamp.Path, stamp.Exists)
		switch mode {
		case FingerprintContent:
			io.WriteString(h, stamp.Sum)
		default:
			io.WriteString(h, strconv.FormatInt(stamp.Size, 10))
			io.WriteString(h, strconv.FormatInt(stamp.ModTime.UnixNano(), 10))
		}
		h.Write([]byte{0})
	}

	fp.Digest = hex.EncodeToString(h.Sum(nil))
	return fp, nil
}

func stampFile(mode FingerprintMode, path string) (FileStamp, error) {
	stamp := FileStamp{Path: path}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return stamp, nil
	}
	if err != nil {
		return stamp, fmt.Errorf("stat %s: %w", path, err)
	}

	stamp.Exists = true
	stamp.Size = info.Size()
	stamp.ModTime = info.ModTime()

	if mode == FingerprintContent && info.Mode().IsRegular() {
		sum, err := hashFile(path)
		if err != nil {
			return stamp, err
		}
		stamp.Sum = sum
	}
	return stamp, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
