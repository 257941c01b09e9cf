package reminders

import (
	pkgerrors "github.com/angelmondragon/la-reminders/pkg/errors"
	"gorm.io/gorm"
)

// PendingDelete is an open relational transaction holding an uncommitted
// reminder deletion. Exactly one of Commit or Rollback takes effect; later
// calls are no-ops.
type PendingDelete struct {
	tx      *gorm.DB
	done    bool
	Deleted int64
}

func (p *PendingDelete) Commit() error {
	if p == nil || p.done {
		return nil
	}
	p.done = true
	if err := p.tx.Commit().Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commit reminder delete")
	}
	return nil
}

func (p *PendingDelete) Rollback() error {
	if p == nil || p.done {
		return nil
	}
	p.done = true
	if err := p.tx.Rollback().Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rollback reminder delete")
	}
	return nil
}
