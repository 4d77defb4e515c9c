package namespace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"partywork/bizerror"
	"partywork/client/s3"
	"partywork/common"
	"partywork/domain"
	"partywork/persistence"
	"partywork/session"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

const MaxCoverSize = 2 << 20

func coverKey(projectId types.ID) string {
	return "covers/" + projectId.String()
}

// UploadProjectCover stores the cover object of the project and records its key.
func UploadProjectCover(id types.ID, r io.Reader, size int64, contentType string, s *session.Session) (string, error) {
	if !s3.Enabled() {
		return "", bizerror.ErrObjectStoreDisabled
	}
	if size <= 0 || size > MaxCoverSize {
		return "", &bizerror.ErrBadParam{Cause: fmt.Errorf("cover size must be between 1 and %d bytes", MaxCoverSize)}
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	p, err := LoadManageableProject(db, id, s)
	if err != nil {
		return "", err
	}

	key := coverKey(p.ID)
	opts := []oss.Option{oss.ContentLength(size)}
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	if err := s3.PutObjectFunc(s.Context, key, io.LimitReader(r, MaxCoverSize), opts...); err != nil {
		return "", err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.Model(&domain.Project{}).Where("id = ?", p.ID).
			Updates(map[string]interface{}{"cover_key": key, "update_time": common.Now()}).Error
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// OpenProjectCover opens the cover object of a viewable project, the caller closes it.
func OpenProjectCover(id types.ID, s *session.Session) (io.ReadCloser, error) {
	if !s3.Enabled() {
		return nil, bizerror.ErrObjectStoreDisabled
	}
	p, err := LoadViewableProject(persistence.ActiveDataSourceManager.GormDB(s.Context), id, s)
	if err != nil {
		return nil, err
	}
	if p.CoverKey == "" {
		return nil, bizerror.ErrNotFound
	}
	rc, err := s3.GetObjectFunc(s.Context, p.CoverKey)
	if err != nil {
		var svcErr oss.ServiceError
		if errors.As(err, &svcErr) && svcErr.StatusCode == 404 {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	return rc, nil
}

func deleteCovers(ctx context.Context, keys []string) {
	if !s3.Enabled() || s3.DeleteObjectFunc == nil {
		return
	}
	for _, key := range keys {
		if err := s3.DeleteObjectFunc(ctx, key); err != nil {
			logrus.WithField("key", key).Warnf("failed to delete cover: %v", err)
		}
	}
}
