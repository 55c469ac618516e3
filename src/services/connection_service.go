// backend/src/services/connection_service.go
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/security/validation"
)

type connectionServiceImpl struct {
	db     *sql.DB
	sealer model.TokenSealer
}

func NewConnectionService(db *sql.DB, sealer model.TokenSealer) ConnectionService {
	return &connectionServiceImpl{db: db, sealer: sealer}
}

func (s *connectionServiceImpl) Connect(ctx context.Context, userID int64, broker models.BrokerFormat, creds models.Credentials) (*models.BrokerConnection, error) {
	if broker != models.FormatZerodha {
		return nil, fmt.Errorf("%w: %s has no API sync", ErrUnknownFormat, broker)
	}
	if err := validation.ValidateCredential(creds.APIKey, "apiKey"); err != nil {
		return nil, err
	}
	if err := validation.ValidateCredential(creds.AccessToken, "accessToken"); err != nil {
		return nil, err
	}

	conn := &models.BrokerConnection{
		UserID:      userID,
		Broker:      broker,
		APIKey:      creds.APIKey,
		AccessToken: creds.AccessToken,
	}
	if err := model.UpsertConnection(ctx, s.db, s.sealer, conn); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Broker connection stored", "broker", broker)
	return conn, nil
}

func (s *connectionServiceImpl) List(ctx context.Context, userID int64) ([]models.BrokerConnection, error) {
	return model.ListConnections(ctx, s.db, userID)
}

func (s *connectionServiceImpl) Disconnect(ctx context.Context, userID int64, broker models.BrokerFormat) error {
	if err := model.DeleteConnection(ctx, s.db, userID, broker); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("Broker connection removed", "broker", broker)
	return nil
}
