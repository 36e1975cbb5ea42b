package db

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgconn"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	DB       *gorm.DB
	DBReader *gorm.DB
)

func dsn(host string) string {
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		host,
		os.Getenv("DB_PORT"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PASSWORD"),
	)
}

func initPrimary() error {
	var err error
	DB, err = gorm.Open(postgres.Open(dsn(os.Getenv("DB_HOST"))), &gorm.Config{})
	return err
}

func initReader() error {
	if os.Getenv("DB_HOST_READER") == "" {
		return nil
	}
	var err error
	DBReader, err = gorm.Open(postgres.Open(dsn(os.Getenv("DB_HOST_READER"))), &gorm.Config{})
	return err
}

func Init() error {
	if err := initPrimary(); err != nil {
		return err
	}
	if err := initReader(); err != nil {
		return err
	}
	if DBReader == nil {
		DBReader = DB
	}
	return nil
}

// Migrate creates or updates the tables for the given models.
func Migrate(models ...interface{}) error {
	for _, m := range models {
		if err := DB.AutoMigrate(m); err != nil {
			return err
		}
	}
	return nil
}

// IsUniqueViolation reports whether err is a postgres duplicate-key error.
// Redelivered events surface as these on conflict-tolerant inserts; callers
// treat them as success.
func IsUniqueViolation(err error) bool {
	var perr *pgconn.PgError
	return errors.As(err, &perr) && perr.Code == "23505"
}

func Ping(db *gorm.DB) error {
	d, derr := db.DB()
	if derr != nil {
		return derr
	}
	return d.Ping()
}

func Healthcheck() error {
	if err := Ping(DB); err != nil {
		return err
	}
	return Ping(DBReader)
}

func Healthchecker() error {
	for {
		if err := Healthcheck(); err != nil {
			log.Fatal(err)
			return err
		}
		time.Sleep(time.Second * 10)
	}
}

func Paginate(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page == 0 {
			page = 1
		}

		switch {
		case pageSize > 1000:
			pageSize = 1000
		case pageSize <= 0:
			pageSize = 10
		}

		offset := (page - 1) * pageSize
		return db.Offset(offset).Limit(pageSize)
	}
}
