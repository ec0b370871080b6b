package adapters

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"review_backend/internal/feature/auth/domain/entity"
	"review_backend/internal/feature/auth/usecase"
	"review_backend/internal/platform/mongodb"
)

// UserDocument は users コレクションのドキュメント形式です。
// reviewsフィーチャーの $lookup 結果のデコードにも使用します。
type UserDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Name      string        `bson:"name"`
	Email     string        `bson:"email"`
	Password  string        `bson:"password"`
	IsAdmin   bool          `bson:"isAdmin"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

// ToEntity はドキュメントをドメインエンティティに変換します。
func (d UserDocument) ToEntity() *entity.User {
	return &entity.User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Password:  d.Password,
		IsAdmin:   d.IsAdmin,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// ParseObjectID はhex文字列のIDをObjectIDに変換します。
// 形式が不正な場合、usecase.ErrInvalidIDを返します。
func ParseObjectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, usecase.ErrInvalidID
	}
	return oid, nil
}

// userMongo はUserRepositoryインターフェースのMongoDB実装です。
type userMongo struct {
	coll *mongo.Collection
}

// userMongoがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userMongo)(nil)

// NewUserMongo は users コレクションを使うuserMongoの新しいインスタンスを生成します。
func NewUserMongo(db *mongo.Database) *userMongo {
	return &userMongo{coll: db.Collection(mongodb.UsersCollection)}
}

// Create はユーザーを挿入し、採番されたIDと日時をuに設定します。
// email の一意インデックス違反はusecase.ErrEmailAlreadyExistsに変換します。
func (r *userMongo) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := UserDocument{
		ID:        bson.NewObjectID(),
		Name:      u.Name,
		Email:     u.Email,
		Password:  u.Password,
		IsAdmin:   u.IsAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return usecase.ErrEmailAlreadyExists
		}
		return err
	}
	u.ID = doc.ID.Hex()
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

// FindByEmailAndRole はメールアドレスと管理者フラグでユーザーを取得します。
func (r *userMongo) FindByEmailAndRole(ctx context.Context, email string, isAdmin bool) (*entity.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}, {Key: "isAdmin", Value: isAdmin}})
}

// FindByID はObjectIDのhex文字列でユーザーを取得します。
func (r *userMongo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	oid, err := ParseObjectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *userMongo) findOne(ctx context.Context, filter bson.D) (*entity.User, error) {
	var doc UserDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return doc.ToEntity(), nil
}
