package service

import (
	"errors"

	"codecamp/internal/apperror"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// dbError wraps repository failures; typed application errors pass through.
func dbError(msg string, err error) error {
	var aerr *apperror.Error
	if errors.As(err, &aerr) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict("")
	}
	return apperror.Database(msg, err)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// warn logs the failure of a side effect that must not fail the caller.
func warn(log *zap.Logger, what string, err error, fields ...zap.Field) {
	if err == nil {
		return
	}
	log.Warn(what+" failed", append(fields, zap.Error(err))...)
}
