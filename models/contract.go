package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type ContractStatus string

const (
	ContractStatusDraft            ContractStatus = "DRAFT"
	ContractStatusPendingSignature ContractStatus = "PENDING_SIGNATURE"
	ContractStatusSigned           ContractStatus = "SIGNED"
	ContractStatusAmended          ContractStatus = "AMENDED"
)

// ContractParty is a point-in-time snapshot of one side of the contract,
// copied from the tender/project (customer) or the awarded bid (supplier)
// when the contract is generated.
type ContractParty struct {
	UserID      bson.ObjectID `bson:"userId"      json:"userId"`
	CompanyID   string        `bson:"companyId"   json:"companyId"`
	CompanyName string        `bson:"companyName" json:"companyName"`
	Email       string        `bson:"email"       json:"email"`
}

type ContractChange struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Description string        `bson:"description"   json:"description"`
	AuthorID    bson.ObjectID `bson:"authorId"      json:"authorId"`
	CreatedAt   time.Time     `bson:"createdAt"     json:"createdAt"`
}

// Contract is a top-level entity keyed by tenderId, one-to-one after award.
// Version increments by exactly one per accepted change, so
// len(Changes) == Version-1 always holds.
type Contract struct {
	ID       bson.ObjectID `bson:"_id,omitempty" json:"id"`
	TenderID bson.ObjectID `bson:"tenderId"      json:"tenderId"`

	Customer ContractParty `bson:"customer" json:"customer"`
	Supplier ContractParty `bson:"supplier" json:"supplier"`

	Price          float64          `bson:"price"          json:"price"`
	PriceStructure string           `bson:"priceStructure" json:"priceStructure"`
	Standard       ContractStandard `bson:"standard"       json:"standard"`

	Status  ContractStatus   `bson:"status"  json:"status"`
	Version int              `bson:"version" json:"version"`
	Changes []ContractChange `bson:"changes" json:"changes"`

	SignedAt *time.Time     `bson:"signedAt,omitempty" json:"signedAt,omitempty"`
	SignedBy *bson.ObjectID `bson:"signedBy,omitempty" json:"signedBy,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
