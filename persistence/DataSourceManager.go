package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/mysql"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/sirupsen/logrus"
	otgorm "github.com/smacker/opentracing-gorm"
)

const (
	DriverMysql    = "mysql"
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite3"
)

var ActiveDataSourceManager *DataSourceManager

type DatabaseConfig struct {
	DriverType string
	DriverArgs string
}

func ParseDatabaseConfig(driver, args string) (*DatabaseConfig, error) {
	if args == "" {
		return nil, errors.New("database driver args is empty")
	}
	switch strings.ToLower(driver) {
	case DriverMysql, "":
		return &DatabaseConfig{DriverType: DriverMysql, DriverArgs: args}, nil
	case DriverPostgres, "postgresql":
		return &DatabaseConfig{DriverType: DriverPostgres, DriverArgs: args}, nil
	case DriverSqlite, "sqlite":
		return &DatabaseConfig{DriverType: DriverSqlite, DriverArgs: args}, nil
	}
	return nil, fmt.Errorf("unsupported database driver '%s'", driver)
}

type DataSourceManager struct {
	gormDB *gorm.DB

	DatabaseConfig *DatabaseConfig
}

func (m *DataSourceManager) Start() error {
	db, err := connect(m.DatabaseConfig)
	if err != nil {
		return err
	}
	m.gormDB = db
	if os.Getenv("GIN_MODE") != "release" {
		m.gormDB.LogMode(true)
	}
	otgorm.AddGormCallbacks(m.gormDB)
	return nil
}

func (m *DataSourceManager) Stop() {
	if m.gormDB != nil {
		if err := m.gormDB.Close(); err != nil {
			logrus.Warnf("failed to close DB: %v", err)
		}
		m.gormDB = nil
	}
}

// GormDB returns a new session bound to the tracing span carried by ctx (if any).
func (m *DataSourceManager) GormDB(ctx context.Context) *gorm.DB {
	if m.gormDB == nil {
		return nil
	}
	if ctx == nil {
		return m.gormDB.New()
	}
	return otgorm.SetSpanToGorm(ctx, m.gormDB.New())
}

func connect(config *DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(config.DriverType, config.DriverArgs)
	if err != nil {
		return nil, err
	}
	if err = db.DB().Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// PrepareMysqlDatabase creates the database named in the DSN when it does not exist yet.
func PrepareMysqlDatabase(driverArgs string) error {
	dsn, err := mysql.ParseDSN(driverArgs)
	if err != nil {
		return err
	}
	databaseName := dsn.DBName
	dsn.DBName = ""

	db, err := gorm.Open(DriverMysql, dsn.FormatDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Exec("CREATE DATABASE IF NOT EXISTS `" + databaseName + "` DEFAULT CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci").Error
}
