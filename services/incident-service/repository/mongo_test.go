package repository

import (
	"context"
	"testing"
	"time"

	"incident-reporting-system/services/incident-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func incidentDoc(inc *models.Incident) bson.D {
	return bson.D{
		{Key: "_id", Value: inc.ID},
		{Key: "organization_type", Value: string(inc.OrganizationType)},
		{Key: "incident_id", Value: inc.IncidentID},
		{Key: "reporter_id", Value: inc.ReporterID},
		{Key: "reporter", Value: inc.Reporter},
		{Key: "incident_details", Value: inc.IncidentDetails},
		{Key: "priority", Value: string(inc.Priority)},
		{Key: "status", Value: string(inc.Status)},
		{Key: "reported_at", Value: inc.ReportedAt},
		{Key: "updated_at", Value: inc.UpdatedAt},
	}
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		store := NewMongoStore(mt.DB)

		require.NoError(mt, store.Create(context.Background(), newIncident("RMG123452024", "1")))
	})

	mt.Run("create duplicate incident id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: incidents index: incident_id_1",
		}))
		store := NewMongoStore(mt.DB)

		err := store.Create(context.Background(), newIncident("RMG123452024", "1"))
		assert.ErrorIs(mt, err, ErrDuplicateIncidentID)
	})

	mt.Run("find owned", func(mt *mtest.T) {
		inc := newIncident("RMG123452024", "1")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.incidents", mtest.FirstBatch, incidentDoc(inc)))
		store := NewMongoStore(mt.DB)

		got, err := store.FindOwned(context.Background(), inc.ID, "1")
		require.NoError(mt, err)
		assert.Equal(mt, inc.IncidentID, got.IncidentID)
		assert.Equal(mt, models.StatusOpen, got.Status)
	})

	mt.Run("find owned missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.incidents", mtest.FirstBatch))
		store := NewMongoStore(mt.DB)

		_, err := store.FindOwned(context.Background(), "nope", "1")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("update closed incident", func(mt *mtest.T) {
		inc := newIncident("RMG123452024", "1")
		inc.Status = models.StatusClosed
		mt.AddMockResponses(
			bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}},
			mtest.CreateCursorResponse(0, "db.incidents", mtest.FirstBatch, incidentDoc(inc)),
		)
		store := NewMongoStore(mt.DB)

		details := "edit"
		_, err := store.UpdateOpen(context.Background(), inc.ID, "1", Changes{IncidentDetails: &details}, time.Now())
		assert.ErrorIs(mt, err, ErrClosed)
	})

	mt.Run("update open incident", func(mt *mtest.T) {
		inc := newIncident("RMG123452024", "1")
		inc.IncidentDetails = "edited"
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: incidentDoc(inc)}})
		store := NewMongoStore(mt.DB)

		details := "edited"
		got, err := store.UpdateOpen(context.Background(), inc.ID, "1", Changes{IncidentDetails: &details}, time.Now())
		require.NoError(mt, err)
		assert.Equal(mt, "edited", got.IncidentDetails)
	})
}
