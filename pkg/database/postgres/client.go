package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/rdsutils"
	"github.com/pkg/errors"

	_ "github.com/newrelic/go-agent/v3/integrations/nrpgx"
)

// driverName is the newrelic instrumented pgx driver
const driverName = "nrpgx"

type Config struct {
	User               string
	Host               string
	Password           string
	Port               int
	DbName             string
	MaxOpenConnections int
	MaxIdleConnections int
}

func (c *Config) endpoint() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Open connects with username and password credentials
func Open(ctx context.Context, config *Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		config.User, config.Password, config.endpoint(), config.DbName,
	)
	return open(ctx, dsn)
}

// OpenWithAwsIam connects with an IAM auth token generated from the ambient AWS
// credentials. The configured password is ignored. Only provisioned RDS
// clusters support IAM auth.
func OpenWithAwsIam(ctx context.Context, config *Config, awsConfig aws.Config) (*sql.DB, error) {
	rdsClient := rds.New(awsConfig)

	token, err := rdsutils.BuildAuthToken(config.endpoint(), rdsClient.Region, config.User, rdsClient.Credentials)
	if err != nil {
		return nil, errors.Wrap(err, "error building rds auth token")
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		config.Host, config.Port, config.User, token, config.DbName,
	)
	return open(ctx, dsn)
}

func open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "error pinging postgres")
	}
	return db, nil
}
