package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cogenplan/cogenplan/pkg/storage"
	"github.com/cogenplan/cogenplan/pkg/storage/storagemock"
	"github.com/cogenplan/cogenplan/pkg/types"
)

func TestGetScenario(t *testing.T) {
	t.Run("Current", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("GetScenario", mock.Anything, "bldg-1").Return(testScenario(t), types.CurrentScenarioVersion, nil)
		handler := newTestServer(db).setupHandler()

		req := httptest.NewRequest(http.MethodGet, "/api/scenario?buildingID=bldg-1", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var res ScenarioRes
		require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
		assert.Equal(t, "bldg-1", res.BuildingID)
		assert.Equal(t, types.CurrentScenarioVersion, res.Version)
		assert.Equal(t, "Seattle 12-unit", res.Scenario.Name)
		db.AssertNotCalled(t, "SetScenario", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("MigratesOldVersion", func(t *testing.T) {
		old := testScenario(t)
		old.Sensitivity = types.SensitivitySettings{}

		db := &storagemock.MockDatabase{}
		db.On("GetScenario", mock.Anything, "bldg-1").Return(old, 2, nil)
		db.On("SetScenario", mock.Anything, "bldg-1", mock.MatchedBy(func(s types.Scenario) bool {
			return s.Sensitivity.Samples == 256 && s.Sensitivity.Deviation == 0.1
		}), types.CurrentScenarioVersion).Return(nil).Once()
		handler := newTestServer(db).setupHandler()

		req := httptest.NewRequest(http.MethodGet, "/api/scenario?buildingID=bldg-1", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var res ScenarioRes
		require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
		assert.Equal(t, types.CurrentScenarioVersion, res.Version)
		assert.Equal(t, 256, res.Scenario.Sensitivity.Samples)
		db.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("GetScenario", mock.Anything, "bldg-9").Return(types.Scenario{}, 0, fmt.Errorf("%w: bldg-9", storage.ErrScenarioNotFound))
		handler := newTestServer(db).setupHandler()

		req := httptest.NewRequest(http.MethodGet, "/api/scenario?buildingID=bldg-9", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("StorageError", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("GetScenario", mock.Anything, "bldg-1").Return(types.Scenario{}, 0, assert.AnError)
		handler := newTestServer(db).setupHandler()

		req := httptest.NewRequest(http.MethodGet, "/api/scenario?buildingID=bldg-1", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestSetScenario(t *testing.T) {
	post := func(handler http.Handler, body any) *httptest.ResponseRecorder {
		var r *strings.Reader
		if s, ok := body.(string); ok {
			r = strings.NewReader(s)
		} else {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			r = strings.NewReader(string(b))
		}
		req := httptest.NewRequest(http.MethodPost, "/api/scenario", r)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	t.Run("Valid", func(t *testing.T) {
		s := testScenario(t)
		db := &storagemock.MockDatabase{}
		db.On("SetScenario", mock.Anything, "bldg-1", s, types.CurrentScenarioVersion).Return(nil).Once()
		handler := newTestServer(db).setupHandler()

		w := post(handler, map[string]any{"buildingID": "bldg-1", "scenario": s})
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		db.AssertExpectations(t)
	})

	t.Run("OldVersionGetsDefaults", func(t *testing.T) {
		s := testScenario(t)
		s.Sensitivity = types.SensitivitySettings{}
		db := &storagemock.MockDatabase{}
		db.On("SetScenario", mock.Anything, "bldg-1", mock.MatchedBy(func(s types.Scenario) bool {
			return s.Sensitivity.Samples == 256
		}), types.CurrentScenarioVersion).Return(nil).Once()
		handler := newTestServer(db).setupHandler()

		w := post(handler, map[string]any{"buildingID": "bldg-1", "scenario": s, "version": 2})
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		db.AssertExpectations(t)
	})

	t.Run("Invalid", func(t *testing.T) {
		s := testScenario(t)
		s.IncentivePercent = 1.5
		db := &storagemock.MockDatabase{}
		handler := newTestServer(db).setupHandler()

		w := post(handler, map[string]any{"buildingID": "bldg-1", "scenario": s})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), types.ErrInvalidConfig.Error())
		db.AssertNotCalled(t, "SetScenario", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UnknownField", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		handler := newTestServer(db).setupHandler()

		w := post(handler, `{"buildingID":"bldg-1","scenario":{"name":"x","boilerSize":3}}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		db.AssertNotCalled(t, "SetScenario", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("StorageError", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("SetScenario", mock.Anything, "bldg-1", mock.Anything, mock.Anything).Return(assert.AnError)
		handler := newTestServer(db).setupHandler()

		w := post(handler, map[string]any{"buildingID": "bldg-1", "scenario": testScenario(t)})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
