package event

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

func cacheKeyEventDetails(id string) string {
	return fmt.Sprintf("event:%s", id)
}

// cacheKeyPage hashes everything that shapes a first page. Viewer identity is left out
// on purpose: bookmarked-only pages are never cached.
func cacheKeyPage(f SearchFilter, field domain.SortField, pageSize int) string {
	types := make([]string, 0, len(f.Types))
	for _, t := range f.Types {
		types = append(types, string(t))
	}
	sort.Strings(types)

	raw := fmt.Sprintf("status=%s|group=%s|types=%s|host=%s|q=%s|sort=%s|ps=%d|admin=%t",
		f.Status, f.StatusGroup, strings.Join(types, ","), f.HostID, strings.ToLower(f.Keyword),
		field, pageSize, isAdmin(f.ViewerRole))

	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("events:list:%s", hex.EncodeToString(hash[:]))
}
