package doctorRepo

import (
	"context"
	"fmt"
	"time"

	"vetbook/database"
	"vetbook/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDoctorRepo implements DoctorRepository backed by MongoDB.
type MongoDoctorRepo struct {
	coll *mongo.Collection
}

func NewMongoDoctorRepo() *MongoDoctorRepo {
	return &MongoDoctorRepo{
		coll: database.MongoClient.Database("vetbook").Collection("doctors"),
	}
}

func (repo *MongoDoctorRepo) List(ctx context.Context) ([]models.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cur, err := repo.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	defer cur.Close(ctx)

	var docs []models.Doctor
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode doctors: %w", err)
	}
	return docs, nil
}

func (repo *MongoDoctorRepo) GetByID(ctx context.Context, id string) (*models.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc models.Doctor
	if err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch doctor %s: %w", id, err)
	}
	return &doc, nil
}

func (repo *MongoDoctorRepo) Create(ctx context.Context, doc *models.Doctor) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	doc.ID = uuid.New().String()
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt

	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert doctor: %w", err)
	}
	return nil
}

func (repo *MongoDoctorRepo) Update(ctx context.Context, doc *models.Doctor) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	doc.UpdatedAt = time.Now()
	res, err := repo.coll.ReplaceOne(ctx, bson.M{"id": doc.ID}, doc)
	if err != nil {
		return fmt.Errorf("failed to update doctor %s: %w", doc.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("doctor %s not found", doc.ID)
	}
	return nil
}

func (repo *MongoDoctorRepo) UpdateSchedule(ctx context.Context, id string, schedule models.WeeklySchedule) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"schedule":  schedule,
		"updatedAt": time.Now(),
	}}
	res, err := repo.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update schedule for doctor %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("doctor %s not found", id)
	}
	return nil
}

func (repo *MongoDoctorRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := repo.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete doctor %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("doctor %s not found", id)
	}
	return nil
}
