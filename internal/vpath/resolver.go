package vpath

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrUnknownMount indicates the first segment of a virtual path does not
	// name any mount in the table.
	ErrUnknownMount = errors.New("unknown mount directory")
	// ErrOutsideMount indicates a virtual path attempts to address files
	// outside its mount root.
	ErrOutsideMount = errors.New("path not inside mount directory")
	// ErrNotVirtualizable indicates a real path is not covered by any mount
	// source.
	ErrNotVirtualizable = errors.New("path cannot be mapped to a virtual path")
)

// Mount binds a virtual root name to a real filesystem directory.
type Mount struct {
	Name   string
	Source string
}

// Resolve maps a virtual path onto the real filesystem. The first path
// segment selects the mount by exact name; the remaining segments are joined
// onto the mount source. Segments that would escape the mount root are
// rejected.
func Resolve(mounts []Mount, virtualPath string) (string, error) {
	segments := splitSegments(virtualPath)
	if len(segments) == 0 {
		return "", fmt.Errorf("%w: empty virtual path", ErrUnknownMount)
	}
	for _, segment := range segments[1:] {
		if segment == "." || segment == ".." {
			return "", fmt.Errorf("%w: %q", ErrOutsideMount, virtualPath)
		}
	}
	for _, mount := range mounts {
		if mount.Name != segments[0] {
			continue
		}
		realPath := filepath.Join(append([]string{mount.Source}, segments[1:]...)...)
		if realPath == "" {
			// Unreachable with a validated mount table.
			return "", fmt.Errorf("%w: %q", ErrOutsideMount, virtualPath)
		}
		return realPath, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMount, segments[0])
}

// Virtualize maps a real filesystem path back into the virtual namespace.
// Mounts are scanned in table order and the first mount whose source prefixes
// the path wins, so declaration order decides between nested sources.
func Virtualize(mounts []Mount, realPath string) (string, error) {
	for _, mount := range mounts {
		tail, ok := stripPrefix(realPath, mount.Source)
		if !ok {
			continue
		}
		if tail == "" {
			return mount.Name, nil
		}
		return filepath.Join(mount.Name, tail), nil
	}
	return "", fmt.Errorf("%w: %q", ErrNotVirtualizable, realPath)
}

func splitSegments(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
}

func stripPrefix(path, prefix string) (string, bool) {
	cleanedPath := filepath.Clean(path)
	cleanedPrefix := filepath.Clean(prefix)
	if cleanedPath == cleanedPrefix {
		return "", true
	}
	bounded := cleanedPrefix + string(filepath.Separator)
	if strings.HasPrefix(cleanedPath, bounded) {
		return cleanedPath[len(bounded):], true
	}
	return "", false
}
