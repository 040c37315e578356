package ownerRepo

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

// MongoOwnerRepo implements OwnerRepository backed by MongoDB.
type MongoOwnerRepo struct {
	coll *mongo.Collection
}

func NewMongoOwnerRepo() *MongoOwnerRepo {
	return &MongoOwnerRepo{
		coll: database.MongoClient.Database("vetbook").Collection("owners"),
	}
}

func (repo *MongoOwnerRepo) List(ctx context.Context) ([]models.PetOwner, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cur, err := repo.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	defer cur.Close(ctx)

	var owners []models.PetOwner
	if err := cur.All(ctx, &owners); err != nil {
		return nil, fmt.Errorf("failed to decode owners: %w", err)
	}
	return owners, nil
}

func (repo *MongoOwnerRepo) GetByID(ctx context.Context, id string) (*models.PetOwner, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var owner models.PetOwner
	if err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&owner); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch owner %s: %w", id, err)
	}
	return &owner, nil
}

func (repo *MongoOwnerRepo) Create(ctx context.Context, owner *models.PetOwner) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	owner.ID = uuid.New().String()
	owner.CreatedAt = time.Now()
	owner.UpdatedAt = owner.CreatedAt

	if _, err := repo.coll.InsertOne(ctx, owner); err != nil {
		return fmt.Errorf("failed to insert owner: %w", err)
	}
	return nil
}

func (repo *MongoOwnerRepo) Update(ctx context.Context, owner *models.PetOwner) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	owner.UpdatedAt = time.Now()
	res, err := repo.coll.ReplaceOne(ctx, bson.M{"id": owner.ID}, owner)
	if err != nil {
		return fmt.Errorf("failed to update owner %s: %w", owner.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("owner %s not found", owner.ID)
	}
	return nil
}

func (repo *MongoOwnerRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := repo.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete owner %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("owner %s not found", id)
	}
	return nil
}
