/*
 * @module service/scheduler/recalculation_scheduler_test
 * @description Tests for the scheduled company sweep
 * @architecture test layer - integration tests over an in-memory database
 */

package scheduler

import (
	"testing"

	"qs-service/service/models"
	"qs-service/service/qsscore"
	"qs-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepAllCompanies(t *testing.T) {
	testDB := testutil.NewTestDB()
	defer testDB.Close()
	factory := testutil.NewTestDataFactory(testDB.DB)

	companyA := factory.CreateCompany()
	factory.CreateArea(companyA.ID)
	factory.CreateArea(companyA.ID)
	companyB := factory.CreateCompany()
	factory.CreateArea(companyB.ID)

	scheduler := NewRecalculationScheduler(testDB.DB, qsscore.NewService(testDB.DB), nil)
	defer scheduler.Stop()

	scheduler.runSweep()

	// companyA: two areas plus aggregate, companyB: one area plus aggregate
	var countA, countB int64
	testDB.DB.Model(&models.QSScore{}).Where("company_id = ?", companyA.ID).Count(&countA)
	testDB.DB.Model(&models.QSScore{}).Where("company_id = ?", companyB.ID).Count(&countB)
	assert.EqualValues(t, 3, countA)
	assert.EqualValues(t, 2, countB)

	var aggregates int64
	testDB.DB.Model(&models.QSScore{}).Where("area_id IS NULL").Count(&aggregates)
	assert.EqualValues(t, 2, aggregates)
}

func TestStartRejectsInvalidCron(t *testing.T) {
	testDB := testutil.NewTestDB()
	defer testDB.Close()

	t.Setenv("QS_RECALC_CRON", "not a cron spec")

	scheduler := NewRecalculationScheduler(testDB.DB, qsscore.NewService(testDB.DB), nil)
	defer scheduler.Stop()

	err := scheduler.Start()
	require.Error(t, err)
}
