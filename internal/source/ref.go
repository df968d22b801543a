package source

import (
	"fmt"
	"path"
	"strings"
)

// Scheme identifies where a model reference points.
type Scheme string

const (
	SchemeLocal       Scheme = "local"
	SchemeHuggingFace Scheme = "hf"
	SchemeS3          Scheme = "s3"
)

// Ref is a parsed model reference.
type Ref struct {
	Scheme Scheme

	// Path is the local path for SchemeLocal.
	Path string

	// Repo, File and Revision locate a Hugging Face file.
	Repo     string
	File     string
	Revision string

	// Bucket and Key locate an S3 object.
	Bucket string
	Key    string
}

// ParseRef parses a model reference:
//
//	best.pt, ./runs/train/weights/best.pt   local path
//	hf://owner/repo/weights/best.pt[@rev]   Hugging Face file
//	s3://bucket/prefix/best.pt              S3 object
func ParseRef(raw string) (Ref, error) {
	raw = strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(raw, "hf://"):
		rest := strings.TrimPrefix(raw, "hf://")
		var rev string
		if i := strings.LastIndex(rest, "@"); i >= 0 {
			rest, rev = rest[:i], rest[i+1:]
			if rev == "" {
				return Ref{}, fmt.Errorf("invalid hf reference %q: empty revision", raw)
			}
		}
		parts := strings.SplitN(rest, "/", 3)
		if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return Ref{}, fmt.Errorf("invalid hf reference %q: want hf://owner/repo/file", raw)
		}
		file := path.Clean(parts[2])
		if escapes(file) {
			return Ref{}, fmt.Errorf("invalid hf reference %q: file escapes the repository", raw)
		}
		return Ref{
			Scheme:   SchemeHuggingFace,
			Repo:     parts[0] + "/" + parts[1],
			File:     file,
			Revision: rev,
		}, nil

	case strings.HasPrefix(raw, "s3://"):
		rest := strings.TrimPrefix(raw, "s3://")
		bucket, key, ok := strings.Cut(rest, "/")
		if !ok || bucket == "" || key == "" || strings.HasSuffix(key, "/") {
			return Ref{}, fmt.Errorf("invalid s3 reference %q: want s3://bucket/key", raw)
		}
		if escapes(path.Clean(key)) {
			return Ref{}, fmt.Errorf("invalid s3 reference %q: key escapes the bucket", raw)
		}
		return Ref{Scheme: SchemeS3, Bucket: bucket, Key: key}, nil

	case strings.Contains(raw, "://"):
		return Ref{}, fmt.Errorf("unsupported model reference scheme in %q", raw)
	}

	return Ref{Scheme: SchemeLocal, Path: raw}, nil
}

func escapes(p string) bool {
	return p == ".." || strings.HasPrefix(p, "../") || strings.HasPrefix(p, "/")
}

// String returns the reference in its textual form.
func (r Ref) String() string {
	switch r.Scheme {
	case SchemeHuggingFace:
		s := "hf://" + r.Repo + "/" + r.File
		if r.Revision != "" {
			s += "@" + r.Revision
		}
		return s
	case SchemeS3:
		return "s3://" + r.Bucket + "/" + r.Key
	default:
		return r.Path
	}
}
