package app

import (
	"context"
	"io"
	"partywork/account"
	"partywork/client/es"
	"partywork/client/s3"
	"partywork/common"
	"partywork/config"
	"partywork/infra/tracing"
	"partywork/persistence"

	"github.com/sirupsen/logrus"
)

// Runtime holds the process wide resources opened by Bootstrap.
type Runtime struct {
	Config     *config.AppConfig
	DataSource *persistence.DataSourceManager

	closers []io.Closer
}

// Bootstrap connects the database and the optional integrations. Missing integrations are disabled with a warning.
func Bootstrap(c *config.AppConfig) (*Runtime, error) {
	rt := &Runtime{Config: c}

	closer, err := tracing.InitGlobalTracer(common.GetServiceName())
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, closer)

	dbConfig, err := persistence.ParseDatabaseConfig(c.Database.Driver, c.Database.Args)
	if err != nil {
		rt.Close()
		return nil, err
	}
	// create database (no conflict)
	if dbConfig.DriverType == persistence.DriverMysql {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			rt.Close()
			return nil, err
		}
	}
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		rt.Close()
		return nil, err
	}
	rt.DataSource = ds
	persistence.ActiveDataSourceManager = ds

	account.SystemAdminEmails = c.SystemAdminEmails

	if c.Search.ElasticsearchURL != "" {
		if _, err := es.Bootstrap(c.Search.ElasticsearchURL); err != nil {
			rt.Close()
			return nil, err
		}
	} else {
		logrus.Warn("elasticsearch url is not configured, task search disabled")
	}

	if c.OSS.Enabled() {
		if err := s3.Bootstrap(c.OSS.Endpoint, c.OSS.AccessKey, c.OSS.SecretKey, c.OSS.Bucket); err != nil {
			rt.Close()
			return nil, err
		}
	} else {
		logrus.Warn("object store is not configured, project covers disabled")
	}
	return rt, nil
}

func (rt *Runtime) Migrate(ctx context.Context) error {
	return persistence.Migrate(rt.DataSource.GormDB(ctx), Models()...)
}

func (rt *Runtime) Close() {
	if rt.DataSource != nil {
		rt.DataSource.Stop()
	}
	for _, c := range rt.closers {
		if err := c.Close(); err != nil {
			logrus.Warnf("close resource: %v", err)
		}
	}
}
