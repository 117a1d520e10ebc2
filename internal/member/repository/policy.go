package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LockMode is the row lock a query acquires. Locks are held until the enclosing
// transaction ends.
type LockMode int

const (
	// LockNone reads without row locks.
	LockNone LockMode = iota
	// LockPessimisticRead takes a shared lock (SELECT ... FOR SHARE).
	LockPessimisticRead
	// LockPessimisticWrite takes an exclusive lock (SELECT ... FOR UPDATE).
	LockPessimisticWrite
)

func (m LockMode) String() string {
	switch m {
	case LockPessimisticRead:
		return "pessimistic_read"
	case LockPessimisticWrite:
		return "pessimistic_write"
	default:
		return "none"
	}
}

// queryPolicy carries the per-query flags. readOnly results are never tracked by the
// bound session, so changes to them are not flushed.
type queryPolicy struct {
	readOnly bool
	lock     LockMode
}

var (
	tracked  = queryPolicy{}
	readOnly = queryPolicy{readOnly: true}
)

func locked(mode LockMode) queryPolicy {
	return queryPolicy{lock: mode}
}

// apply adds the locking clause for p to tx.
func (p queryPolicy) apply(tx *gorm.DB) *gorm.DB {
	switch p.lock {
	case LockPessimisticRead:
		return tx.Clauses(clause.Locking{Strength: "SHARE"})
	case LockPessimisticWrite:
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	default:
		return tx
	}
}
