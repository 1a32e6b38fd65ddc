// Package drivers registers every bundled dialect with a factory.
package drivers

import (
	"github.com/ruslano69/sqlkit/pkg/database"
	"github.com/ruslano69/sqlkit/pkg/database/mysql"
	"github.com/ruslano69/sqlkit/pkg/database/oracle"
	"github.com/ruslano69/sqlkit/pkg/database/postgres"
	"github.com/ruslano69/sqlkit/pkg/database/sqlite"
	"github.com/ruslano69/sqlkit/pkg/database/sqlsrv"
)

// RegisterAll registers mysql, mysqli, postgresql, pgsql, sqlite,
// sqlsrv, sqlazure and oracle.
func RegisterAll(f *database.Factory) *database.Factory {
	mysql.Register(f)
	postgres.Register(f)
	sqlite.Register(f)
	sqlsrv.Register(f)
	oracle.Register(f)
	return f
}

// NewFactory returns a factory with every dialect registered.
func NewFactory() *database.Factory {
	return RegisterAll(database.NewFactory())
}
