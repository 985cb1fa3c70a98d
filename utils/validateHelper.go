package utils

import (
	"context"

	"github.com/chefcloud/nimbus_backend/config"
)

func ResourceCountWhere[T any](ctx context.Context, organizationId string, cond string, values ...interface{}) (int64, error) {
	db := config.GetDB()
	var model T
	var count int64
	err := db.WithContext(ctx).Model(&model).
		Where("organization_id = ?", organizationId).
		Where(cond, values...).
		Count(&count).Error
	return count, err
}

// check if id exists, using the org in WHERE, return RecordNotFound error
func ValidateResourceId[T any](ctx context.Context, organizationId string, id interface{}) error {
	count, err := ResourceCountWhere[T](ctx, organizationId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}
	return nil
}
