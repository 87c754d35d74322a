package decsync

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/39aldo39/libdecsync-go/internal/engine"
	"github.com/39aldo39/libdecsync-go/internal/fsutil"
	"github.com/39aldo39/libdecsync-go/internal/pathcodec"
)

// DecsyncSubdir builds a collection's root directory: base, if given, else
// a platform default, followed by the URL-encoded sync type and (if given)
// the URL-encoded collection name.
func DecsyncSubdir(base, syncType string, collection string) string {
	if base == "" {
		base = defaultBaseDir()
	}
	dir := filepath.Join(base, pathcodec.EncodeSegment(syncType))
	if collection != "" {
		dir = filepath.Join(dir, pathcodec.EncodeSegment(collection))
	}
	return dir
}

// defaultBaseDir mirrors the reference implementation's platform default of
// a "decsync" directory under the user's data directory. Go has no portable
// equivalent of Android's app-private storage, so this falls back to
// $HOME/.decsync; callers that need a different location should pass base
// explicitly to DecsyncSubdir / Open.
func defaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".decsync"
	}
	return filepath.Join(home, ".decsync")
}

// ListDecsyncCollections returns the URL-decoded names of the non-hidden
// directories directly under base/urlenc(syncType). When
// ignoreDeleted is true, a collection is omitted if its stored "deleted"
// static value (under path ["info"], key "deleted") is the JSON boolean
// true.
func ListDecsyncCollections(base, syncType string, ignoreDeleted bool, logger Logger) []string {
	if logger == nil {
		logger = NewNoopLogger()
	}
	root := DecsyncSubdir(base, syncType, "")

	dirs, err := fsutil.ListDirs(root)
	if err != nil {
		logger.Warn(fmt.Sprintf("listing collections under %s", root), Field{"error", err})
		return nil
	}

	var names []string
	for _, encName := range dirs {
		if fsutil.IsHidden(encName) {
			continue
		}
		name, err := pathcodec.DecodeSegment(encName)
		if err != nil {
			logger.Warn("undecodable collection directory name", Field{"name", encName})
			continue
		}
		if ignoreDeleted {
			collDir := filepath.Join(root, encName)
			value, ok := engine.GetStoredStaticValue(collDir, []string{"info"}, NewStringValue("deleted"), asEngineLogger(logger))
			if ok {
				if deleted, isBool := value.Bool(); isBool && deleted {
					continue
				}
			}
		}
		names = append(names, name)
	}
	return names
}

// GetAppId builds a writer identity string unique to this running
// instance, derived from a caller-supplied device model and an app name,
// optionally disambiguated with an id in [0, 100000) for multiple
// concurrent instances of the same app on the same device.
func GetAppId(deviceModel, appName string, id ...int) string {
	if len(id) == 0 {
		return fmt.Sprintf("%s-%s", deviceModel, appName)
	}
	return fmt.Sprintf("%s-%s-%05d", deviceModel, appName, id[0]%100000)
}

// NewRandomAppId returns a convenience appId built from a random UUID
// instead of a device model, for callers without one handy (tests, the
// CLI, ephemeral tooling). It sits alongside GetAppId, not in place of it.
func NewRandomAppId(appName string) string {
	return fmt.Sprintf("%s-%s", uuid.NewString(), appName)
}
