package database

import (
	"context"
	"strconv"
)

// TransactionDepth is the current nesting level, 0 outside a transaction.
func (d *Driver) TransactionDepth() int { return d.depth }

func (d *Driver) savepointName(level int) string {
	return d.QuoteName("SP_" + strconv.Itoa(level))
}

// TransactionStart opens a transaction at depth 0 and a savepoint
// inside an open one. asSavepoint is accepted for symmetry with commit
// and rollback; nesting is decided by depth alone.
func (d *Driver) TransactionStart(ctx context.Context, asSavepoint bool) error {
	stmt := d.dialect.BeginSQL()
	if d.depth > 0 {
		stmt = d.dialect.SavepointSQL(d.savepointName(d.depth))
	}
	if err := d.txExec(ctx, "TransactionStart", stmt); err != nil {
		return err
	}
	d.depth++
	return nil
}

// TransactionCommit commits the transaction, or with toSavepoint at
// depth > 1 releases the innermost savepoint.
func (d *Driver) TransactionCommit(ctx context.Context, toSavepoint bool) error {
	if d.depth == 0 {
		return Errorf(KindTransaction, "TransactionCommit", "no active transaction")
	}
	if !toSavepoint || d.depth == 1 {
		if err := d.txExec(ctx, "TransactionCommit", d.dialect.CommitSQL()); err != nil {
			return err
		}
		d.depth = 0
		return nil
	}
	if err := d.txExec(ctx, "TransactionCommit", d.dialect.ReleaseSavepointSQL(d.savepointName(d.depth-1))); err != nil {
		return err
	}
	d.depth--
	return nil
}

// TransactionRollback rolls back the transaction, or with toSavepoint at
// depth > 1 the innermost savepoint only.
func (d *Driver) TransactionRollback(ctx context.Context, toSavepoint bool) error {
	if d.depth == 0 {
		return Errorf(KindTransaction, "TransactionRollback", "no active transaction")
	}
	if !toSavepoint || d.depth == 1 {
		if err := d.txExec(ctx, "TransactionRollback", d.dialect.RollbackSQL()); err != nil {
			return err
		}
		d.depth = 0
		return nil
	}
	if err := d.txExec(ctx, "TransactionRollback", d.dialect.RollbackToSavepointSQL(d.savepointName(d.depth-1))); err != nil {
		return err
	}
	d.depth--
	return nil
}

func (d *Driver) txExec(ctx context.Context, op, stmt string) error {
	if stmt == "" {
		return nil
	}
	err := d.dispatch(ctx, stmt, func(ctx context.Context) error {
		_, err := d.conn.ExecContext(ctx, stmt)
		return err
	})
	if err != nil {
		if e, ok := err.(*Error); ok && e.Kind == KindQuery {
			e.Kind, e.Op = KindTransaction, op
		}
		return err
	}
	return nil
}
