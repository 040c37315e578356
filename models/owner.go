package models

import "time"

// PetOwner is the requester of appointments.
type PetOwner struct {
	ID        string    `bson:"id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Phone     string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Pets      []PetInfo `bson:"pets,omitempty" json:"pets,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt,omitzero"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt,omitzero"`
}
