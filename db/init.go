package db

import (
	"context"

	"github.com/SaiNageswarS/go-api-boot/odm"

	"ems-copilot/history"
)

func InitEmsDB(ctx context.Context, mongo odm.MongoClient, tenant string) error {
	err := odm.EnsureIndexes[VitalsModel](ctx, mongo, tenant)
	if err != nil {
		return err
	}

	err = odm.EnsureIndexes[history.ConversationModel](ctx, mongo, tenant)
	if err != nil {
		return err
	}

	err = odm.EnsureIndexes[history.ConversationAnnModel](ctx, mongo, tenant)
	if err != nil {
		return err
	}

	return nil
}
