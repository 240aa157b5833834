package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/agency-ops-api/internal/models"
	"github.com/yukikurage/agency-ops-api/internal/repository"
	"github.com/yukikurage/agency-ops-api/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stubSuggester returns a fixed set of suggestions
type stubSuggester struct {
	tasks []services.SuggestedTask
	brief string
}

func (s *stubSuggester) SuggestTasks(ctx context.Context, brief string) ([]services.SuggestedTask, error) {
	s.brief = brief
	return s.tasks, nil
}

// TaskHandlerTestSuite defines the test suite for TaskHandler
type TaskHandlerTestSuite struct {
	suite.Suite
	db        *gorm.DB
	suggester *stubSuggester
	handler   *TaskHandler
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.db = newTestDB(suite.T())
	suite.suggester = &stubSuggester{}
	suite.handler = suite.newHandler(suite.suggester)
}

// TearDownTest runs after each test
func (suite *TaskHandlerTestSuite) TearDownTest() {
	closeTestDB(suite.T(), suite.db)
}

func (suite *TaskHandlerTestSuite) newHandler(suggester services.TaskSuggester) *TaskHandler {
	svc := services.NewTaskService(
		repository.NewTaskRepository(suite.db),
		repository.NewClientRepository(suite.db),
		suggester,
		zap.NewNop(),
	)
	return NewTaskHandler(svc)
}

func (suite *TaskHandlerTestSuite) createTestTask(title string, clientID *string, mutate ...func(*models.Task)) *models.Task {
	task := &models.Task{
		Title:       title,
		Description: "Test Description",
		ClientID:    clientID,
	}
	for _, m := range mutate {
		m(task)
	}
	suite.Require().NoError(suite.db.Create(task).Error)
	return task
}

// TestListTasks_Success tests successful task listing with the client name joined
func (suite *TaskHandlerTestSuite) TestListTasks_Success() {
	client := createTestClient(suite.T(), suite.db, "Acme")
	task := suite.createTestTask("Test Task", &client.ID)

	c, w := newTestContext("GET", "/api/tasks", nil)
	suite.handler.ListTasks(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	response := decodeBody(suite.T(), w)
	assert.Contains(suite.T(), response, "tasks")
	assert.Contains(suite.T(), response, "pagination")

	tasks := response["tasks"].([]interface{})
	assert.Len(suite.T(), tasks, 1)

	first := tasks[0].(map[string]interface{})
	assert.Equal(suite.T(), task.Title, first["title"])
	assert.Equal(suite.T(), "Acme", first["client_name"])
	assert.Equal(suite.T(), false, first["client_missing"])
}

// TestListTasks_MissingClient tests that a dangling client reference is flagged, not dropped
func (suite *TaskHandlerTestSuite) TestListTasks_MissingClient() {
	ghost := uuid.NewString()
	suite.createTestTask("Orphan", &ghost)

	c, w := newTestContext("GET", "/api/tasks", nil)
	suite.handler.ListTasks(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	tasks := decodeBody(suite.T(), w)["tasks"].([]interface{})
	suite.Require().Len(tasks, 1)
	first := tasks[0].(map[string]interface{})
	assert.Nil(suite.T(), first["client_name"])
	assert.Equal(suite.T(), true, first["client_missing"])
}

// TestListTasks_FilterByStatus tests filtering with both vocabularies
func (suite *TaskHandlerTestSuite) TestListTasks_FilterByStatus() {
	suite.createTestTask("Open", nil)
	suite.createTestTask("Done", nil, func(t *models.Task) { t.Status = models.TaskStatusCompleted })

	c, w := newTestContext("GET", "/api/tasks?status=Completed", nil)
	suite.handler.ListTasks(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	tasks := decodeBody(suite.T(), w)["tasks"].([]interface{})
	suite.Require().Len(tasks, 1)
	assert.Equal(suite.T(), "Done", tasks[0].(map[string]interface{})["title"])
}

// TestListTasks_InvalidClientID tests listing with a malformed client filter
func (suite *TaskHandlerTestSuite) TestListTasks_InvalidClientID() {
	c, w := newTestContext("GET", "/api/tasks?client_id=not-a-uuid", nil)
	suite.handler.ListTasks(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "INVALID_FORMAT", decodeBody(suite.T(), w)["code"])
}

// TestListTasks_SortByDeadline tests that tasks without a deadline sort last
func (suite *TaskHandlerTestSuite) TestListTasks_SortByDeadline() {
	later := time.Now().Add(72 * time.Hour)
	sooner := time.Now().Add(24 * time.Hour)
	suite.createTestTask("No deadline", nil)
	suite.createTestTask("Later", nil, func(t *models.Task) { t.Deadline = &later })
	suite.createTestTask("Sooner", nil, func(t *models.Task) { t.Deadline = &sooner })

	c, w := newTestContext("GET", "/api/tasks?sort=deadline", nil)
	suite.handler.ListTasks(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	tasks := decodeBody(suite.T(), w)["tasks"].([]interface{})
	suite.Require().Len(tasks, 3)
	titles := []string{}
	for _, t := range tasks {
		titles = append(titles, t.(map[string]interface{})["title"].(string))
	}
	assert.Equal(suite.T(), []string{"Sooner", "Later", "No deadline"}, titles)
}

// TestListTasks_SortByDeadlineIncludesLegacyDueDates tests that pending rows due via timer_end sort by that moment
func (suite *TaskHandlerTestSuite) TestListTasks_SortByDeadlineIncludesLegacyDueDates() {
	soon := time.Now().UTC().Add(24 * time.Hour)
	later := time.Now().UTC().Add(72 * time.Hour)
	finished := time.Now().UTC().Add(-time.Hour)
	suite.createTestTask("Deadline column", nil, func(t *models.Task) { t.Deadline = &later })
	suite.createTestTask("Legacy", nil, func(t *models.Task) { t.TimerEnd = &soon })
	suite.createTestTask("Completed", nil, func(t *models.Task) {
		t.Status = models.TaskStatusCompleted
		t.TimerEnd = &finished
	})

	c, w := newTestContext("GET", "/api/tasks?sort=deadline", nil)
	suite.handler.ListTasks(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	tasks := decodeBody(suite.T(), w)["tasks"].([]interface{})
	suite.Require().Len(tasks, 3)
	titles := []string{}
	for _, t := range tasks {
		titles = append(titles, t.(map[string]interface{})["title"].(string))
	}
	assert.Equal(suite.T(), []string{"Legacy", "Deadline column", "Completed"}, titles)
	assert.NotNil(suite.T(), tasks[0].(map[string]interface{})["deadline"])
}

// TestListTasks_FilterByUppercaseClientID tests that the client filter ignores UUID case
func (suite *TaskHandlerTestSuite) TestListTasks_FilterByUppercaseClientID() {
	client := createTestClient(suite.T(), suite.db, "Acme")
	upper := strings.ToUpper(client.ID)

	c, w := newTestContext("POST", "/api/tasks", map[string]interface{}{
		"client_id": upper,
		"title":     "Shouted",
	})
	suite.handler.CreateTask(c)
	suite.Require().Equal(http.StatusCreated, w.Code)

	c, w = newTestContext("GET", "/api/tasks?client_id="+upper, nil)
	suite.handler.ListTasks(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	tasks := decodeBody(suite.T(), w)["tasks"].([]interface{})
	suite.Require().Len(tasks, 1)
	assert.Equal(suite.T(), client.ID, tasks[0].(map[string]interface{})["client_id"])
}

// TestGetTask_Success tests successful task retrieval
func (suite *TaskHandlerTestSuite) TestGetTask_Success() {
	task := suite.createTestTask("Test Task", nil)

	c, w := newTestContext("GET", "/api/tasks/"+task.ID, nil, idParam(task.ID))
	suite.handler.GetTask(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	response := decodeBody(suite.T(), w)
	assert.Equal(suite.T(), task.ID, response["id"])
	assert.Equal(suite.T(), "Test Task", response["title"])
}

// TestGetTask_NotFound tests retrieval of an unknown task
func (suite *TaskHandlerTestSuite) TestGetTask_NotFound() {
	c, w := newTestContext("GET", "/api/tasks/missing", nil, idParam(uuid.NewString()))
	suite.handler.GetTask(c)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), "NOT_FOUND", decodeBody(suite.T(), w)["code"])
}

// TestCreateTask_Success tests successful task creation
func (suite *TaskHandlerTestSuite) TestCreateTask_Success() {
	client := createTestClient(suite.T(), suite.db, "Acme")

	c, w := newTestContext("POST", "/api/tasks", map[string]interface{}{
		"client_id":   client.ID,
		"title":       "  New Task  ",
		"description": "Task Description",
		"deadline":    "2030-01-15",
	})
	suite.handler.CreateTask(c)

	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	response := decodeBody(suite.T(), w)
	assert.Equal(suite.T(), "New Task", response["title"])
	assert.Equal(suite.T(), "pending", response["status"])
	assert.Equal(suite.T(), "Acme", response["client_name"])
	assert.NotNil(suite.T(), response["deadline"])

	var count int64
	suite.db.Model(&models.Task{}).Count(&count)
	assert.Equal(suite.T(), int64(1), count)
}

// TestCreateTask_InvalidClientID tests that a malformed client id is rejected
func (suite *TaskHandlerTestSuite) TestCreateTask_InvalidClientID() {
	c, w := newTestContext("POST", "/api/tasks", map[string]interface{}{
		"client_id": "12345",
		"title":     "New Task",
	})
	suite.handler.CreateTask(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "INVALID_FORMAT", decodeBody(suite.T(), w)["code"])
}

// TestCreateTask_MissingTitle tests task creation without a title
func (suite *TaskHandlerTestSuite) TestCreateTask_MissingTitle() {
	client := createTestClient(suite.T(), suite.db, "Acme")

	c, w := newTestContext("POST", "/api/tasks", map[string]interface{}{
		"client_id": client.ID,
		"title":     "   ",
	})
	suite.handler.CreateTask(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestCreateTask_UnknownClient tests task creation for a client that does not exist
func (suite *TaskHandlerTestSuite) TestCreateTask_UnknownClient() {
	c, w := newTestContext("POST", "/api/tasks", map[string]interface{}{
		"client_id": uuid.NewString(),
		"title":     "New Task",
	})
	suite.handler.CreateTask(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestCreateTask_InvalidDeadline tests that a bad date is reported per field
func (suite *TaskHandlerTestSuite) TestCreateTask_InvalidDeadline() {
	client := createTestClient(suite.T(), suite.db, "Acme")

	c, w := newTestContext("POST", "/api/tasks", map[string]interface{}{
		"client_id": client.ID,
		"title":     "New Task",
		"deadline":  "next tuesday",
	})
	suite.handler.CreateTask(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	details := decodeBody(suite.T(), w)["details"].(map[string]interface{})
	assert.Equal(suite.T(), "invalid_date", details["deadline"])
}

// TestCreateTask_InvalidJSON tests task creation with a malformed body
func (suite *TaskHandlerTestSuite) TestCreateTask_InvalidJSON() {
	c, w := newTestContext("POST", "/api/tasks", "{not json")
	suite.handler.CreateTask(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestUpdateTask_Success tests a partial update
func (suite *TaskHandlerTestSuite) TestUpdateTask_Success() {
	deadline := time.Now().Add(48 * time.Hour)
	task := suite.createTestTask("Old Title", nil, func(t *models.Task) { t.Deadline = &deadline })

	c, w := newTestContext("PATCH", "/api/tasks/"+task.ID, map[string]interface{}{
		"title":    "New Title",
		"status":   "In Progress",
		"deadline": "",
	}, idParam(task.ID))
	suite.handler.UpdateTask(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	response := decodeBody(suite.T(), w)
	assert.Equal(suite.T(), "New Title", response["title"])
	assert.Equal(suite.T(), "in_progress", response["status"])
	assert.Nil(suite.T(), response["deadline"])
	assert.Equal(suite.T(), "Test Description", response["description"])
}

// TestUpdateTask_InvalidStatus tests update with an unknown status
func (suite *TaskHandlerTestSuite) TestUpdateTask_InvalidStatus() {
	task := suite.createTestTask("Task", nil)

	c, w := newTestContext("PATCH", "/api/tasks/"+task.ID, map[string]interface{}{
		"status": "done",
	}, idParam(task.ID))
	suite.handler.UpdateTask(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestUpdateTask_NotFound tests update of an unknown task
func (suite *TaskHandlerTestSuite) TestUpdateTask_NotFound() {
	id := uuid.NewString()
	c, w := newTestContext("PATCH", "/api/tasks/"+id, map[string]interface{}{
		"title": "x",
	}, idParam(id))
	suite.handler.UpdateTask(c)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

// TestTimerLifecycle tests start then complete, and that a closed task cannot restart
func (suite *TaskHandlerTestSuite) TestTimerLifecycle() {
	task := suite.createTestTask("Timed", nil)

	c, w := newTestContext("POST", "/api/tasks/"+task.ID+"/start", nil, idParam(task.ID))
	suite.handler.StartTask(c)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	started := decodeBody(suite.T(), w)
	assert.Equal(suite.T(), "in_progress", started["status"])
	assert.NotNil(suite.T(), started["timer_start"])
	assert.Nil(suite.T(), started["timer_end"])

	c, w = newTestContext("POST", "/api/tasks/"+task.ID+"/complete", nil, idParam(task.ID))
	suite.handler.CompleteTask(c)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	completed := decodeBody(suite.T(), w)
	assert.Equal(suite.T(), "completed", completed["status"])
	assert.NotNil(suite.T(), completed["timer_end"])
	assert.Equal(suite.T(), false, completed["overdue"])

	c, w = newTestContext("POST", "/api/tasks/"+task.ID+"/start", nil, idParam(task.ID))
	suite.handler.StartTask(c)
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
	assert.Equal(suite.T(), "INVALID_OPERATION", decodeBody(suite.T(), w)["code"])
}

// TestStartTask_KeepsLegacyDeadline tests that a deadline stored in timer_end survives starting
func (suite *TaskHandlerTestSuite) TestStartTask_KeepsLegacyDeadline() {
	due := time.Date(2031, 3, 1, 17, 0, 0, 0, time.UTC)
	task := suite.createTestTask("Legacy", nil, func(t *models.Task) { t.TimerEnd = &due })

	c, w := newTestContext("POST", "/api/tasks/"+task.ID+"/start", nil, idParam(task.ID))
	suite.handler.StartTask(c)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var stored models.Task
	suite.Require().NoError(suite.db.First(&stored, "id = ?", task.ID).Error)
	suite.Require().NotNil(stored.Deadline)
	assert.True(suite.T(), due.Equal(*stored.Deadline))
	assert.Nil(suite.T(), stored.TimerEnd)
}

// TestCancelTask tests cancelling an open task
func (suite *TaskHandlerTestSuite) TestCancelTask() {
	task := suite.createTestTask("Cancel me", nil)

	c, w := newTestContext("POST", "/api/tasks/"+task.ID+"/cancel", nil, idParam(task.ID))
	suite.handler.CancelTask(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "canceled", decodeBody(suite.T(), w)["status"])
}

// TestDeleteTask_Success tests successful task deletion
func (suite *TaskHandlerTestSuite) TestDeleteTask_Success() {
	task := suite.createTestTask("Delete me", nil)

	c, w := newTestContext("DELETE", "/api/tasks/"+task.ID, nil, idParam(task.ID))
	suite.handler.DeleteTask(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var count int64
	suite.db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count)
	assert.Equal(suite.T(), int64(0), count)
}

// TestDeleteTask_NotFound tests deleting an unknown task
func (suite *TaskHandlerTestSuite) TestDeleteTask_NotFound() {
	id := uuid.NewString()
	c, w := newTestContext("DELETE", "/api/tasks/"+id, nil, idParam(id))
	suite.handler.DeleteTask(c)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

// TestSuggestTasks_NotConfigured tests suggestions without an AI backend
func (suite *TaskHandlerTestSuite) TestSuggestTasks_NotConfigured() {
	client := createTestClient(suite.T(), suite.db, "Acme")
	handler := suite.newHandler(nil)

	c, w := newTestContext("POST", "/api/clients/"+client.ID+"/task-suggestions", nil, idParam(client.ID))
	handler.SuggestTasks(c)

	assert.Equal(suite.T(), http.StatusServiceUnavailable, w.Code)
	assert.Equal(suite.T(), "SERVICE_UNAVAILABLE", decodeBody(suite.T(), w)["code"])
}

// TestSuggestTasks_Success tests that suggestions are filtered and capped
func (suite *TaskHandlerTestSuite) TestSuggestTasks_Success() {
	client := &models.Client{Name: "Acme", ProjectIdeas: "Launch a cooking channel"}
	suite.Require().NoError(suite.db.Create(client).Error)

	past := time.Now().Add(-72 * time.Hour)
	tasks := []services.SuggestedTask{{Title: "", Description: "no title"}}
	for i := 0; i < 12; i++ {
		tasks = append(tasks, services.SuggestedTask{Title: "Task", Deadline: &past})
	}
	suite.suggester.tasks = tasks

	c, w := newTestContext("POST", "/api/clients/"+client.ID+"/task-suggestions", map[string]interface{}{
		"context": "Focus on short-form video",
	}, idParam(client.ID))
	suite.handler.SuggestTasks(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	suggestions := decodeBody(suite.T(), w)["suggestions"].([]interface{})
	assert.Len(suite.T(), suggestions, 10)
	assert.Nil(suite.T(), suggestions[0].(map[string]interface{})["deadline"])
	assert.True(suite.T(), strings.Contains(suite.suggester.brief, "Launch a cooking channel"))
	assert.True(suite.T(), strings.Contains(suite.suggester.brief, "Focus on short-form video"))
}

// TestSuggestTasks_ClientNotFound tests suggestions for an unknown client
func (suite *TaskHandlerTestSuite) TestSuggestTasks_ClientNotFound() {
	id := uuid.NewString()
	c, w := newTestContext("POST", "/api/clients/"+id+"/task-suggestions", nil, idParam(id))
	suite.handler.SuggestTasks(c)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

// TestSuggestTasks_Empty tests that an empty model answer is reported
func (suite *TaskHandlerTestSuite) TestSuggestTasks_Empty() {
	client := createTestClient(suite.T(), suite.db, "Acme")

	c, w := newTestContext("POST", "/api/clients/"+client.ID+"/task-suggestions", nil, idParam(client.ID))
	suite.handler.SuggestTasks(c)

	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
}

// TestTaskHandlerTestSuite runs the test suite
func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
