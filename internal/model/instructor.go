package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Instructor mirrors a document in the `instructors` collection.
type Instructor struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
	Image string             `bson:"image,omitempty" json:"image,omitempty"`
}

// InstructorRanking is one row of the popular-instructors aggregation.
type InstructorRanking struct {
	Instructor    `bson:",inline"`
	ClassCount    int `bson:"classCount" json:"classCount"`
	TotalStudents int `bson:"totalStudents" json:"totalStudents"`
}
