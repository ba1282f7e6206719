package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/pkg/logging"
)

func logWithFields(ctx context.Context, level logrus.Level, msg string, fields logrus.Fields) {
	logging.FromContext(ctx).WithFields(fields).Log(level, msg)
}
