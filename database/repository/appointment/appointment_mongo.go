package appointmentRepo

import (
	"context"
	"fmt"
	"time"

	"vetbook/database"
	"vetbook/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAppointmentRepo implements AppointmentRepository backed by MongoDB.
type MongoAppointmentRepo struct {
	coll *mongo.Collection
}

func NewMongoAppointmentRepo() *MongoAppointmentRepo {
	return &MongoAppointmentRepo{
		coll: database.MongoClient.Database("vetbook").Collection("appointments"),
	}
}

func (repo *MongoAppointmentRepo) ListByDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "dateTime", Value: 1}})
	cur, err := repo.coll.Find(ctx, bson.M{"doctorId": doctorID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments for doctor %s: %w", doctorID, err)
	}
	defer cur.Close(ctx)

	var appts []models.Appointment
	if err := cur.All(ctx, &appts); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appts, nil
}

func (repo *MongoAppointmentRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "dateTime", Value: 1}})
	cur, err := repo.coll.Find(ctx, bson.M{"ownerId": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments for owner %s: %w", ownerID, err)
	}
	defer cur.Close(ctx)

	var appts []models.Appointment
	if err := cur.All(ctx, &appts); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appts, nil
}

func (repo *MongoAppointmentRepo) ListAll(ctx context.Context) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cur, err := repo.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer cur.Close(ctx)

	var appts []models.Appointment
	if err := cur.All(ctx, &appts); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appts, nil
}

func (repo *MongoAppointmentRepo) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var appt models.Appointment
	if err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&appt); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch appointment %s: %w", id, err)
	}
	return &appt, nil
}

// Create books the slot transactionally: the overlap count and the insert run
// in one session so two racing inserts cannot both land. The loser gets
// ErrSlotTaken.
func (repo *MongoAppointmentRepo) Create(ctx context.Context, appt *models.Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if appt.DoctorID == "" || appt.OwnerID == "" || appt.Duration <= 0 || appt.DateTime.IsZero() {
		return fmt.Errorf("invalid appointment payload: doctor, owner, dateTime and duration are required")
	}
	appt.ID = uuid.New().String()
	appt.CreatedAt = time.Now()
	if appt.Status == "" {
		appt.Status = models.StatusScheduled
	}

	session, err := repo.coll.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		n, err := repo.coll.CountDocuments(sc, overlapFilter(appt.DoctorID, appt.DateTime, appt.Duration))
		if err != nil {
			return nil, fmt.Errorf("failed to check slot before insert: %w", err)
		}
		if n > 0 {
			return nil, ErrSlotTaken
		}
		if _, err := repo.coll.InsertOne(sc, appt); err != nil {
			return nil, fmt.Errorf("failed to insert appointment: %w", err)
		}
		return nil, nil
	})
	return err
}

func (repo *MongoAppointmentRepo) Update(ctx context.Context, appt *models.Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := repo.coll.ReplaceOne(ctx, bson.M{"id": appt.ID}, appt)
	if err != nil {
		return fmt.Errorf("failed to update appointment %s: %w", appt.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("appointment %s not found", appt.ID)
	}
	return nil
}

// overlapFilter matches persisted non-cancelled appointments for the doctor
// whose [dateTime, dateTime+duration) interval overlaps the requested one.
// Touching endpoints do not overlap. Stored documents carry only start +
// duration, so the start scan is bounded by the longest bookable appointment
// and ends are compared in an $expr.
func overlapFilter(doctorID string, dateTime time.Time, duration int) bson.M {
	end := dateTime.Add(time.Duration(duration) * time.Minute)

	const maxDurationMin = 24 * 60
	return bson.M{
		"doctorId": doctorID,
		"status":   bson.M{"$ne": models.StatusCancelled},
		"dateTime": bson.M{
			"$lt":  end,
			"$gte": dateTime.Add(-maxDurationMin * time.Minute),
		},
		"$expr": bson.M{
			"$gt": bson.A{
				bson.M{"$add": bson.A{
					"$dateTime",
					bson.M{"$multiply": bson.A{"$duration", 60 * 1000}},
				}},
				dateTime,
			},
		},
	}
}

// IsSlotAvailable is the authoritative overlap check.
func (repo *MongoAppointmentRepo) IsSlotAvailable(ctx context.Context, doctorID string, dateTime time.Time, duration int) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := repo.coll.CountDocuments(ctx, overlapFilter(doctorID, dateTime, duration))
	if err != nil {
		return false, fmt.Errorf("failed to check slot availability: %w", err)
	}
	return n == 0, nil
}
