package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vitalcircle/vitalcircle/models"
	"github.com/vitalcircle/vitalcircle/utils"
)

const maxPostLength = 5000

// CommunityController manages support groups, their posts, comments and reactions.
type CommunityController struct {
	db *gorm.DB
}

// NewCommunityController creates a CommunityController.
func NewCommunityController(db *gorm.DB) *CommunityController {
	return &CommunityController{db: db}
}

func groupPostsPrefix(groupID uint) string {
	return utils.CacheKey("group", strconv.FormatUint(uint64(groupID), 10), "posts")
}

func postDetailKey(postID uint) string {
	return utils.CacheKey("post", strconv.FormatUint(uint64(postID), 10), "detail")
}

type groupView struct {
	models.SupportGroup
	MemberCount int64 `json:"member_count"`
	Joined      bool  `json:"joined"`
}

// ListGroups returns every support group with its member count and whether the caller joined it.
func (c *CommunityController) ListGroups(ctx *gin.Context) {
	userID, _ := getUserID(ctx)
	category := strings.TrimSpace(ctx.Query("category"))
	db := c.db.WithContext(ctx.Request.Context())

	groups := make([]models.SupportGroup, 0)
	q := db.Order("name ASC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if err := q.Find(&groups).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to list groups")
		return
	}

	var counts []struct {
		GroupID uint
		Total   int64
	}
	if err := db.Model(&models.GroupMembership{}).Select("group_id, COUNT(*) AS total").Group("group_id").Scan(&counts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to list groups")
		return
	}
	countByGroup := make(map[uint]int64, len(counts))
	for _, row := range counts {
		countByGroup[row.GroupID] = row.Total
	}

	var joinedIDs []uint
	if userID != 0 {
		if err := db.Model(&models.GroupMembership{}).Where("user_id = ?", userID).Pluck("group_id", &joinedIDs).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to list groups")
			return
		}
	}
	joined := make(map[uint]bool, len(joinedIDs))
	for _, id := range joinedIDs {
		joined[id] = true
	}

	out := make([]groupView, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupView{SupportGroup: g, MemberCount: countByGroup[g.ID], Joined: joined[g.ID]})
	}
	utils.Success(ctx, out)
}

// CreateGroup creates a support group; the creator joins it.
func (c *CommunityController) CreateGroup(ctx *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		Category    string `json:"category" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}
	name := utils.SanitizePlain(req.Name)
	if name == "" || len(name) > 200 {
		utils.Error(ctx, http.StatusBadRequest, 40061, "name must be 1-200 characters")
		return
	}
	category := strings.ToLower(strings.TrimSpace(req.Category))
	if category != models.GroupCategoryCondition && category != models.GroupCategoryLifestyle {
		utils.Error(ctx, http.StatusBadRequest, 40062, "category must be condition or lifestyle")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	group := models.SupportGroup{
		Name:        name,
		Description: utils.Sanitize(req.Description),
		Category:    category,
		CreatedBy:   userID,
	}
	err := c.db.WithContext(ctx.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.SupportGroup{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errGroupExists
		}
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		return tx.Create(&models.GroupMembership{GroupID: group.ID, UserID: userID, JoinedAt: time.Now()}).Error
	})
	if errors.Is(err, errGroupExists) {
		utils.Error(ctx, http.StatusConflict, 40960, "a group with this name already exists")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to create group")
		return
	}
	utils.Created(ctx, group)
}

var errGroupExists = errors.New("group exists")

func (c *CommunityController) loadGroup(ctx *gin.Context) (*models.SupportGroup, bool) {
	groupID, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40063, "invalid group id")
		return nil, false
	}
	var group models.SupportGroup
	if err := c.db.WithContext(ctx.Request.Context()).First(&group, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40460, "group not found")
			return nil, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to load group")
		return nil, false
	}
	return &group, true
}

func (c *CommunityController) isMember(ctx *gin.Context, groupID, userID uint) (bool, error) {
	var count int64
	err := c.db.WithContext(ctx.Request.Context()).Model(&models.GroupMembership{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

// JoinGroup adds the caller to the group. Joining twice is a no-op.
func (c *CommunityController) JoinGroup(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	group, ok := c.loadGroup(ctx)
	if !ok {
		return
	}
	membership := models.GroupMembership{GroupID: group.ID, UserID: userID, JoinedAt: time.Now()}
	if err := c.db.WithContext(ctx.Request.Context()).Clauses(clause.OnConflict{DoNothing: true}).Create(&membership).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50063, "failed to join group")
		return
	}
	utils.Success(ctx, gin.H{"group_id": group.ID, "joined": true})
}

// LeaveGroup removes the caller from the group.
func (c *CommunityController) LeaveGroup(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	group, ok := c.loadGroup(ctx)
	if !ok {
		return
	}
	if err := c.db.WithContext(ctx.Request.Context()).
		Where("group_id = ? AND user_id = ?", group.ID, userID).
		Delete(&models.GroupMembership{}).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50064, "failed to leave group")
		return
	}
	utils.Success(ctx, gin.H{"group_id": group.ID, "joined": false})
}

// ListPosts returns a group's posts, newest first. Pages are cached until the group's next write.
func (c *CommunityController) ListPosts(ctx *gin.Context) {
	group, ok := c.loadGroup(ctx)
	if !ok {
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	cacheKey := fmt.Sprintf("%s:page=%d:size=%d", groupPostsPrefix(group.ID), page, pageSize)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	db := c.db.WithContext(ctx.Request.Context())
	var total int64
	if err := db.Model(&models.ForumPost{}).Where("group_id = ?", group.ID).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50065, "failed to count posts")
		return
	}
	posts := make([]models.ForumPost, 0)
	if err := db.Preload("User").
		Where("group_id = ?", group.ID).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50066, "failed to list posts")
		return
	}

	payload := gin.H{
		"items":      posts,
		"pagination": paginationPayload(page, pageSize, total),
	}
	wrapper := struct {
		Code    int         `json:"code"`
		Message string      `json:"message"`
		Data    interface{} `json:"data"`
	}{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(cacheKey, wrapper, 0)
	utils.Success(ctx, payload)
}

// CreatePost publishes a post in a group the caller belongs to.
func (c *CommunityController) CreatePost(ctx *gin.Context) {
	var req struct {
		Content     string `json:"content" binding:"required"`
		IsMilestone bool   `json:"is_milestone"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}
	content := utils.Sanitize(req.Content)
	if content == "" || len(content) > maxPostLength {
		utils.Error(ctx, http.StatusBadRequest, 40064, "content must be 1-5000 characters")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	group, ok := c.loadGroup(ctx)
	if !ok {
		return
	}
	member, err := c.isMember(ctx, group.ID, userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50067, "failed to check membership")
		return
	}
	if !member {
		utils.Error(ctx, http.StatusForbidden, 40360, "join the group before posting")
		return
	}

	post := models.ForumPost{GroupID: group.ID, UserID: userID, Content: content, IsMilestone: req.IsMilestone}
	db := c.db.WithContext(ctx.Request.Context())
	if err := db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50068, "failed to create post")
		return
	}
	if err := db.Preload("User").First(&post, post.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50069, "failed to load post")
		return
	}

	utils.InvalidateByPrefix(groupPostsPrefix(group.ID))
	utils.Created(ctx, gin.H{"post": post})
}

func (c *CommunityController) loadPost(ctx *gin.Context) (*models.ForumPost, bool) {
	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40065, "invalid post id")
		return nil, false
	}
	var post models.ForumPost
	if err := c.db.WithContext(ctx.Request.Context()).First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40461, "post not found")
			return nil, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to load post")
		return nil, false
	}
	return &post, true
}

// GetPost returns one post with its comments and reaction counts.
func (c *CommunityController) GetPost(ctx *gin.Context) {
	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40065, "invalid post id")
		return
	}
	if b, ok := utils.CacheGetBytes(postDetailKey(postID)); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	db := c.db.WithContext(ctx.Request.Context())
	var post models.ForumPost
	if err := db.Preload("User").
		Preload("Comments", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC, id ASC") }).
		Preload("Comments.User").
		First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40461, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to load post")
		return
	}
	if post.Comments == nil {
		post.Comments = []models.ForumComment{}
	}

	reactions, err := c.reactionCounts(ctx, post.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to load reactions")
		return
	}

	payload := gin.H{"post": post, "reactions": reactions}
	wrapper := struct {
		Code    int         `json:"code"`
		Message string      `json:"message"`
		Data    interface{} `json:"data"`
	}{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(postDetailKey(post.ID), wrapper, 0)
	utils.Success(ctx, payload)
}

func (c *CommunityController) reactionCounts(ctx *gin.Context, postID uint) (map[string]int64, error) {
	var rows []struct {
		ReactionType string
		Total        int64
	}
	if err := c.db.WithContext(ctx.Request.Context()).Model(&models.ForumReaction{}).
		Select("reaction_type, COUNT(*) AS total").
		Where("post_id = ?", postID).
		Group("reaction_type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := map[string]int64{
		models.ReactionLike:      0,
		models.ReactionCelebrate: 0,
		models.ReactionSupport:   0,
	}
	for _, r := range rows {
		counts[r.ReactionType] = r.Total
	}
	return counts, nil
}

// DeletePost lets the author or an admin remove a post with its comments and reactions.
func (c *CommunityController) DeletePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	post, ok := c.loadPost(ctx)
	if !ok {
		return
	}
	if post.UserID != userID && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40361, "you can only delete your own post")
		return
	}

	err := c.db.WithContext(ctx.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.ForumComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.ForumReaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50072, "failed to delete post")
		return
	}
	utils.InvalidateByPrefix(groupPostsPrefix(post.GroupID))
	utils.InvalidateByPrefix(postDetailKey(post.ID))
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// CreateComment adds a reply to a post.
func (c *CommunityController) CreateComment(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}
	content := utils.Sanitize(req.Content)
	if content == "" || len(content) > maxPostLength {
		utils.Error(ctx, http.StatusBadRequest, 40066, "content must be 1-5000 characters")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	post, ok := c.loadPost(ctx)
	if !ok {
		return
	}

	comment := models.ForumComment{PostID: post.ID, UserID: userID, Content: content}
	db := c.db.WithContext(ctx.Request.Context())
	if err := db.Create(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50073, "failed to create comment")
		return
	}
	if err := db.Preload("User").First(&comment, comment.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50074, "failed to load comment")
		return
	}
	utils.InvalidateByPrefix(postDetailKey(post.ID))
	utils.Created(ctx, gin.H{"comment": comment})
}

// DeleteComment lets the author or an admin remove a comment.
func (c *CommunityController) DeleteComment(ctx *gin.Context) {
	commentID, ok := parseIDParam(ctx, "commentId")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40067, "invalid comment id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	db := c.db.WithContext(ctx.Request.Context())
	var cmt models.ForumComment
	if err := db.First(&cmt, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40462, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50075, "failed to load comment")
		return
	}
	if cmt.UserID != userID && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40362, "you can only delete your own comment")
		return
	}
	if err := db.Delete(&cmt).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50076, "failed to delete comment")
		return
	}
	utils.InvalidateByPrefix(postDetailKey(cmt.PostID))
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}

func validReaction(t string) bool {
	switch t {
	case models.ReactionLike, models.ReactionCelebrate, models.ReactionSupport:
		return true
	}
	return false
}

// React records the caller's reaction of one type. Reacting twice with the same type is a no-op.
func (c *CommunityController) React(ctx *gin.Context) {
	var req struct {
		ReactionType string `json:"reaction_type" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}
	reaction := strings.ToLower(strings.TrimSpace(req.ReactionType))
	if !validReaction(reaction) {
		utils.Error(ctx, http.StatusBadRequest, 40068, "reaction_type must be like, celebrate or support")
		return
	}
	c.setReaction(ctx, reaction, true)
}

// Unreact removes the caller's reaction of the :type path parameter.
func (c *CommunityController) Unreact(ctx *gin.Context) {
	reaction := strings.ToLower(strings.TrimSpace(ctx.Param("type")))
	if !validReaction(reaction) {
		utils.Error(ctx, http.StatusBadRequest, 40068, "reaction_type must be like, celebrate or support")
		return
	}
	c.setReaction(ctx, reaction, false)
}

func (c *CommunityController) setReaction(ctx *gin.Context, reaction string, on bool) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	post, ok := c.loadPost(ctx)
	if !ok {
		return
	}

	db := c.db.WithContext(ctx.Request.Context())
	var err error
	if on {
		err = db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.ForumReaction{PostID: post.ID, UserID: userID, ReactionType: reaction}).Error
	} else {
		err = db.Where("post_id = ? AND user_id = ? AND reaction_type = ?", post.ID, userID, reaction).
			Delete(&models.ForumReaction{}).Error
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50077, "failed to update reaction")
		return
	}
	utils.InvalidateByPrefix(postDetailKey(post.ID))

	counts, err := c.reactionCounts(ctx, post.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to load reactions")
		return
	}
	utils.Success(ctx, gin.H{"post_id": post.ID, "reactions": counts})
}
