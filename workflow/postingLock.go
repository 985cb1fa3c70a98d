package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireOrgPostingLock serializes guarded accounting writes per organization
// across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that will perform the posting transaction.
func AcquireOrgPostingLock(tx *gorm.DB, organizationId string) error {
	lockName := fmt.Sprintf("posting:%s", organizationId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for organization_id=%s", organizationId)
	}
	return nil
}

func ReleaseOrgPostingLock(tx *gorm.DB, organizationId string) {
	lockName := fmt.Sprintf("posting:%s", organizationId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
