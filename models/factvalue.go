package models

import "github.com/google/uuid"

// FactKind is the discriminant of a FactValue. The store indexes on this
// without ever interpreting the payload it tags.
type FactKind string

const (
	KindName             FactKind = "name"
	KindAlias            FactKind = "alias"
	KindPhoto            FactKind = "photo"
	KindBirthday         FactKind = "birthday"
	KindAnniversary      FactKind = "anniversary"
	KindGender           FactKind = "gender"
	KindEmail            FactKind = "email"
	KindPhone            FactKind = "phone"
	KindAddress          FactKind = "address"
	KindURL              FactKind = "url"
	KindIM               FactKind = "im"
	KindSocial           FactKind = "social"
	KindRelationship     FactKind = "relationship"
	KindOrgMembership    FactKind = "org_membership"
	KindGroupMembership  FactKind = "group_membership"
	KindNote             FactKind = "note"
	KindMeeting          FactKind = "meeting"
	KindIntroduction     FactKind = "introduction"
	KindCustom           FactKind = "custom"
)

// FactValue is the tagged union of fact payloads. The fact taxonomy is a
// closed sum type: adding a variant means touching this file, the vCard
// codec's mapping table, the diff pipeline's match-key table and the
// serializer. That coupling is intentional (spec §9).
type FactValue interface {
	Kind() FactKind
}

// LabelKind classifies how a contact method is labelled.
type LabelKind string

const (
	LabelWork   LabelKind = "work"
	LabelHome   LabelKind = "home"
	LabelOther  LabelKind = "other"
	LabelCustom LabelKind = "custom"
)

// Label is {Work, Home, Other, Custom(string)}.
type Label struct {
	Kind   LabelKind
	Custom string // set only when Kind == LabelCustom
}

func (l Label) String() string {
	if l.Kind == LabelCustom {
		return l.Custom
	}
	return string(l.Kind)
}

// NewLabel builds a Label from free text, folding recognized tokens into
// the fixed kinds and anything else into LabelCustom.
func NewLabel(s string) Label {
	switch s {
	case "work", "WORK":
		return Label{Kind: LabelWork}
	case "home", "HOME":
		return Label{Kind: LabelHome}
	case "", "other", "OTHER":
		return Label{Kind: LabelOther}
	default:
		return Label{Kind: LabelCustom, Custom: s}
	}
}

// Identity variants

type NameValue struct {
	Given      *string
	Family     *string
	Additional *string
	Prefix     *string
	Suffix     *string
	Full       string
}

func (NameValue) Kind() FactKind { return KindName }

type AliasValue struct {
	Name    string
	Context *string
}

func (AliasValue) Kind() FactKind { return KindAlias }

type PhotoValue struct {
	Path        string
	ContentHash string
	MediaType   string
}

func (PhotoValue) Kind() FactKind { return KindPhoto }

type BirthdayValue struct {
	Date DateValue
}

func (BirthdayValue) Kind() FactKind { return KindBirthday }

type AnniversaryValue struct {
	Date DateValue
}

func (AnniversaryValue) Kind() FactKind { return KindAnniversary }

type GenderValue struct {
	Value string
}

func (GenderValue) Kind() FactKind { return KindGender }

// Contact-method variants

type EmailValue struct {
	Address    string
	Label      Label
	Preference int // 1 (most preferred) .. 255 (unspecified)
}

func (EmailValue) Kind() FactKind { return KindEmail }

type PhoneValue struct {
	Number     string
	Label      Label
	PhoneKind  string // voice, cell, fax, pager, ...
	Preference int
}

func (PhoneValue) Kind() FactKind { return KindPhone }

type AddressValue struct {
	Label      Label
	Street     *string
	Locality   *string
	Region     *string
	PostalCode *string
	Country    *string
}

func (AddressValue) Kind() FactKind { return KindAddress }

type URLValue struct {
	URL     string
	Context string
}

func (URLValue) Kind() FactKind { return KindURL }

type IMValue struct {
	Handle  string
	Service string
}

func (IMValue) Kind() FactKind { return KindIM }

type SocialValue struct {
	Platform string
	Handle   string
}

func (SocialValue) Kind() FactKind { return KindSocial }

// Relationship variants

type RelationshipValue struct {
	Relation  string
	OtherID   *uuid.UUID
	OtherName *string
}

func (RelationshipValue) Kind() FactKind { return KindRelationship }

type OrgMembershipValue struct {
	OrgName string
	OrgID   *uuid.UUID
	Title   *string
	Role    *string
}

func (OrgMembershipValue) Kind() FactKind { return KindOrgMembership }

type GroupMembershipValue struct {
	GroupID   *uuid.UUID
	GroupName string
}

func (GroupMembershipValue) Kind() FactKind { return KindGroupMembership }

// Context variants

type NoteValue struct {
	Text string
}

func (NoteValue) Kind() FactKind { return KindNote }

// MeetingValue's effective time lives on the owning Fact's EffectiveAt
// field, not here, per spec §3.
type MeetingValue struct {
	Summary  string
	Location *string
}

func (MeetingValue) Kind() FactKind { return KindMeeting }

type IntroductionValue struct {
	Text string
}

func (IntroductionValue) Kind() FactKind { return KindIntroduction }

// Custom is the escape hatch: an opaque key/value pair for anything the
// closed taxonomy doesn't name.
type CustomValue struct {
	Key   string
	Value string
}

func (CustomValue) Kind() FactKind { return KindCustom }
