package identitysync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"partywork/common"
	"partywork/config"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	DirectoryPageSize = 100
	HttpInvokeFunc    = common.HttpInvokeJson
)

// DirectorySync pulls every user of the provider directory and upserts them locally.
// It backfills users created before the webhook was configured.
func DirectorySync(ctx context.Context, c config.IdentityConfig) (int, error) {
	if c.DirectoryBaseURL == "" {
		return 0, errors.New("identity directory url is not configured")
	}
	headers := http.Header{}
	if c.DirectorySecret != "" {
		headers.Set("Authorization", "Bearer "+c.DirectorySecret)
	}
	base := strings.TrimSuffix(c.DirectoryBaseURL, "/")

	synced := 0
	for offset := 0; ; offset += DirectoryPageSize {
		url := fmt.Sprintf("%s/v1/users?limit=%d&offset=%d", base, DirectoryPageSize, offset)
		body, err := HttpInvokeFunc(ctx, http.MethodGet, url, headers, "")
		if err != nil {
			return synced, err
		}
		var page []userData
		if err := json.Unmarshal([]byte(body), &page); err != nil {
			return synced, fmt.Errorf("decode directory page at offset %d: %w", offset, err)
		}
		for i := range page {
			if _, err := UpsertExternalUserFunc(ctx, page[i].profile()); err != nil {
				logrus.WithField("externalId", page[i].ID).Warnf("directory sync skipped user: %v", err)
				continue
			}
			synced++
		}
		if len(page) < DirectoryPageSize {
			break
		}
	}
	logrus.Infof("directory sync finished, %d users synced", synced)
	return synced, nil
}
