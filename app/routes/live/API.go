package live

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"smart-attendance/app/config"
	"smart-attendance/app/database"
	applive "smart-attendance/app/live"
	"smart-attendance/app/models"
)

// OpenSessionAPI establishes (or resumes) the live session for a class,
// section and date. The section roster is fetched once here; a persisted
// snapshot from an earlier run of the same session is restored.
func OpenSessionAPI(c *fiber.Ctx) error {
	type OpenRequest struct {
		ClassName string `json:"class_name"`
		Section   string `json:"section"`
		Date      string `json:"date"`
	}

	var req OpenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.ClassName == "" || req.Section == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Class name and section are required"})
	}
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid date format. Use YYYY-MM-DD"})
	}

	roster, err := database.GetStudentsBySection(config.GetDB(), req.Section)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch section roster"})
	}
	if len(roster) == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "No students found for section " + req.Section})
	}

	key := applive.Key{ClassName: req.ClassName, Section: req.Section, Date: req.Date}
	session, err := manager.Open(key, roster)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to open session"})
	}

	return c.JSON(fiber.Map{
		"message": "Session open",
		"key":     key,
		"roster":  roster,
		"present": session.Reconciler.Present(),
		"absent":  session.Reconciler.Absent(),
	})
}

// GetStateAPI returns the current present/absent partition and the
// uploaded images of a session.
func GetStateAPI(c *fiber.Ctx) error {
	session, ok := getSession(c)
	if !ok {
		return nil
	}

	present := session.Reconciler.Present()
	absent := session.Reconciler.Absent()
	return c.JSON(fiber.Map{
		"key":           session.Key,
		"present":       present,
		"absent":        absent,
		"present_count": len(present),
		"absent_count":  len(absent),
		"images":        session.Images.List(),
	})
}

// PushFrameAPI applies one browser-captured camera frame through the live
// source path. A recognition failure leaves the session unchanged and is
// reported to the operator; it is not retried here.
func PushFrameAPI(c *fiber.Ctx) error {
	session, ok := getSession(c)
	if !ok {
		return nil
	}

	frame, err := readUpload(c, "image")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "No image provided"})
	}

	result, err := session.PushFrame(c.Context(), frame)
	if err != nil {
		return c.Status(502).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"matches": result.Matches,
		"debug":   result.Debug,
		"present": session.Reconciler.Present(),
	})
}

// StartPollerAPI attaches a server-side camera poller to the session.
func StartPollerAPI(c *fiber.Ctx) error {
	session, ok := getSession(c)
	if !ok {
		return nil
	}

	type PollerRequest struct {
		CameraURL string `json:"camera_url"`
	}
	var req PollerRequest
	if err := c.BodyParser(&req); err != nil || req.CameraURL == "" {
		return c.Status(400).JSON(fiber.Map{"error": "camera_url is required"})
	}

	// The poller outlives this request; it stops on explicit stop, clear
	// or session close.
	source := applive.NewHTTPFrameSource(req.CameraURL)
	if err := session.StartPoller(context.Background(), source, config.AppConfig.PollInterval); err != nil {
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "Camera poller started"})
}

func StopPollerAPI(c *fiber.Ctx) error {
	session, ok := getSession(c)
	if !ok {
		return nil
	}
	session.StopPoller()
	return c.JSON(fiber.Map{"message": "Camera poller stopped"})
}

// UploadImagesAPI registers uploaded photos with the session. Images are
// not scanned here; scanning is an explicit separate action.
func UploadImagesAPI(c *fiber.Ctx) error {
	session, ok := getSession(c)
	if !ok {
		return nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid multipart form"})
	}
	files := form.File["images"]
	if len(files) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "No images provided"})
	}

	var uploaded []fiber.Map
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Failed to read uploaded file " + fh.Filename})
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Failed to read uploaded file " + fh.Filename})
		}
		img := session.Images.Add(fh.Filename, data)
		uploaded = append(uploaded, fiber.Map{"id": img.ID, "filename": img.Filename})
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "Images uploaded",
		"images":  uploaded,
	})
}

// ScanImageAPI runs recognition over one uploaded image. Re-scanning is a
// no-op reported as such; a failed recognition call leaves both the image
// and the attendee set unchanged.
func ScanImageAPI(c *fiber.Ctx) error {
	session, ok := getSession(c)
	if !ok {
		return nil
	}

	result, err := session.ScanImage(c.Context(), c.Params("imageId"))
	if err != nil {
		switch {
		case errors.Is(err, applive.ErrImageNotFound):
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, applive.ErrAlreadyScanned):
			return c.JSON(fiber.Map{"message": "Image was already scanned"})
		case errors.Is(err, applive.ErrScanInProgress):
			return c.Status(429).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(502).JSON(fiber.Map{"error": err.Error()})
		}
	}

	return c.JSON(fiber.Map{
		"message": "Image scanned",
		"matches": result.Matches,
		"debug":   result.Debug,
		"present": session.Reconciler.Present(),
	})
}

// DeleteImageAPI removes an uploaded image and retracts its contribution
// from the attendee set.
func DeleteImageAPI(c *fiber.Ctx) error {
	session, ok := getSession(c)
	if !ok {
		return nil
	}

	if err := session.DeleteImage(c.Params("imageId")); err != nil {
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"message": "Image deleted",
		"present": session.Reconciler.Present(),
	})
}

// ManualEntryAPI marks a single student present by roll number. Unknown
// and duplicate roll numbers are validation errors, not failures.
func ManualEntryAPI(c *fiber.Ctx) error {
	session, ok := getSession(c)
	if !ok {
		return nil
	}

	type ManualRequest struct {
		RollNo string `json:"roll_no"`
	}
	var req ManualRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.RollNo) == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Roll number is required"})
	}

	attendee, err := session.Reconciler.ManualAdd(req.RollNo)
	if err != nil {
		switch {
		case errors.Is(err, applive.ErrNotInRoster):
			return c.Status(404).JSON(fiber.Map{"error": "Student with roll number " + strings.ToUpper(strings.TrimSpace(req.RollNo)) + " not found"})
		case errors.Is(err, applive.ErrAlreadyPresent):
			return c.Status(409).JSON(fiber.Map{"error": strings.ToUpper(strings.TrimSpace(req.RollNo)) + " is already marked present"})
		default:
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
	}

	return c.JSON(fiber.Map{
		"message":  "Marked present",
		"attendee": attendee,
	})
}

// ManualOverrideAPI marks students present through the audited override
// path. The audit rows are written first; if that fails nothing is applied
// to the session.
func ManualOverrideAPI(c *fiber.Ctx) error {
	session, ok := getSession(c)
	if !ok {
		return nil
	}

	type OverrideStudent struct {
		RollNo string `json:"rollNo"`
		Name   string `json:"name"`
	}
	type OverrideRequest struct {
		Students []OverrideStudent `json:"students"`
		Reason   string            `json:"reason"`
		Subject  string            `json:"subject"`
		Period   string            `json:"period"`
		Confirm  bool              `json:"confirm"`
	}

	var req OverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if len(req.Students) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "No students selected for override"})
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if len(req.Reason) < 20 {
		return c.Status(400).JSON(fiber.Map{"error": "Reason must be at least 20 characters"})
	}
	if !req.Confirm {
		return c.Status(400).JSON(fiber.Map{"error": "Override must be explicitly confirmed"})
	}

	facultyID, _ := c.Locals("faculty_id").(string)
	facultyName, _ := c.Locals("user_name").(string)
	if facultyID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Faculty ID is required"})
	}

	key := session.Key
	now := time.Now().UTC()
	logs := make([]*models.OverrideLog, 0, len(req.Students))
	assertions := make([]applive.Assertion, 0, len(req.Students))
	for _, s := range req.Students {
		logs = append(logs, &models.OverrideLog{
			RollNo:         s.RollNo,
			StudentName:    s.Name,
			FacultyID:      facultyID,
			FacultyName:    facultyName,
			Subject:        req.Subject,
			Period:         req.Period,
			ClassName:      key.ClassName,
			Date:           key.Date,
			OriginalStatus: "absent",
			UpdatedStatus:  "present",
			Reason:         req.Reason,
			Timestamp:      now,
		})
		assertions = append(assertions, applive.Assertion{RollNo: s.RollNo, Name: s.Name})
	}

	if err := database.InsertOverrideLogs(config.GetDB(), logs); err != nil {
		log.Printf("Failed to write override audit log: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Failed to record override audit log; no students were marked"})
	}

	session.Reconciler.ApplyOverride(assertions, req.Reason)

	return c.JSON(fiber.Map{
		"message":       "Manual override applied",
		"overrideCount": len(req.Students),
		"present":       session.Reconciler.Present(),
	})
}

// MarkAllPresentAPI replaces the attendee set with the full roster. The
// explicit confirm flag stands in for the operator confirmation dialog.
func MarkAllPresentAPI(c *fiber.Ctx) error {
	session, ok := getSession(c)
	if !ok {
		return nil
	}

	type ConfirmRequest struct {
		Confirm bool `json:"confirm"`
	}
	var req ConfirmRequest
	if err := c.BodyParser(&req); err != nil || !req.Confirm {
		return c.Status(400).JSON(fiber.Map{"error": "Bulk mark must be explicitly confirmed"})
	}

	session.Reconciler.MarkAllPresent()
	return c.JSON(fiber.Map{
		"message": "All students marked present",
		"present": session.Reconciler.Present(),
	})
}

// ClearAllAPI resets the session: attendees, uploaded images and the
// persisted snapshot.
func ClearAllAPI(c *fiber.Ctx) error {
	session, ok := getSession(c)
	if !ok {
		return nil
	}

	session.StopPoller()
	session.Images.Clear()
	session.Reconciler.ClearAll()
	return c.JSON(fiber.Map{"message": "Session cleared"})
}

// CloseSessionAPI flushes and tears the session down.
func CloseSessionAPI(c *fiber.Ctx) error {
	if err := manager.Close(sessionKey(c)); err != nil {
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Session closed"})
}

func readUpload(c *fiber.Ctx, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
