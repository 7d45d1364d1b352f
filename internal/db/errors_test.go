package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestKindOf_Nil(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
}

func TestKindOf_NotConfigured(t *testing.T) {
	assert.Equal(t, KindBadCredentials, KindOf(ErrNotConfigured))
	wrapped := eris.Wrap(ErrNotConfigured, "store: open")
	assert.Equal(t, KindBadCredentials, KindOf(wrapped))
}

func TestKindOf_PostgresCodes(t *testing.T) {
	cases := []struct {
		code string
		want Kind
	}{
		{"42P01", KindMissingTable},   // undefined_table
		{"3F000", KindMissingTable},   // invalid_schema_name
		{"3D000", KindBadCredentials}, // invalid_catalog_name
		{"28P01", KindBadCredentials}, // invalid_password
		{"28000", KindBadCredentials}, // invalid_authorization_specification
		{"57014", KindTransient},      // query_canceled
		{"53300", KindTransient},      // too_many_connections
	}
	for _, tc := range cases {
		err := &pgconn.PgError{Code: tc.code}
		assert.Equal(t, tc.want, KindOf(err), "code %s", tc.code)
		assert.Equal(t, tc.want, KindOf(eris.Wrap(err, "store: query")), "wrapped code %s", tc.code)
	}
}

func TestKindOf_SQLiteMissingTable(t *testing.T) {
	err := eris.New("SQL logic error: no such table: arrest_logs (1)")
	assert.Equal(t, KindMissingTable, KindOf(err))
}

func TestKindOf_Generic(t *testing.T) {
	assert.Equal(t, KindTransient, KindOf(eris.New("boom")))
	assert.Equal(t, KindTransient, KindOf(context.DeadlineExceeded))
}
