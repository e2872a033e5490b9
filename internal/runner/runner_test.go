package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/netology-qa/card-delivery-e2e/internal/booking"
	"github.com/netology-qa/card-delivery-e2e/internal/stubapp"
)

const baseURL = "http://localhost:9999"

var now = booking.FixedClock(time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC))

func quickOptions() Options {
	return Options{
		BaseURL:             baseURL,
		NotificationTimeout: 200 * time.Millisecond,
		AssertTimeout:       60 * time.Millisecond,
		PollInterval:        5 * time.Millisecond,
		RunID:               "run-1",
	}
}

func fakeRules() stubapp.Rules {
	r := stubapp.DefaultRules()
	r.Now = now
	return r
}

func TestRunSuccess(t *testing.T) {
	in := booking.ValidInput(now)
	want := booking.ExpectSuccess(in.Date)

	d := &mockDriver{}
	d.expectSubmit(baseURL, in)
	d.On("WaitVisible", booking.NotificationContent, 200*time.Millisecond).Return(nil).Once()
	d.On("Text", booking.NotificationContent).Return("Встреча успешно забронирована на "+in.Date, nil).Once()

	res := New(d, quickOptions()).Run(context.Background(), Scenario{Name: "success", Input: in, Expect: want})

	require.NoError(t, res.Err)
	assert.True(t, res.Passed())
	assert.Equal(t, booking.KindSuccess, res.Kind)
	assert.Equal(t, want.Message, res.Observed)
	assert.Equal(t, "run-1", res.RunID)
	d.AssertExpectations(t)
}

func TestRunSuccessTimeout(t *testing.T) {
	in := booking.ValidInput(now)
	d := &mockDriver{}
	d.expectSubmit(baseURL, in)
	d.On("WaitVisible", booking.NotificationContent, mock.Anything).
		Return(&TimeoutError{Region: booking.NotificationContent, State: "visible", Timeout: 200 * time.Millisecond}).Once()

	res := New(d, quickOptions()).Run(context.Background(), Scenario{Name: "success", Input: in, Expect: booking.ExpectSuccess(in.Date)})

	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, ErrTimeout))
	assert.False(t, errors.Is(res.Err, ErrAssertionMismatch))
	d.AssertNotCalled(t, "Text", booking.NotificationContent)
}

func TestRunSuccessWrongText(t *testing.T) {
	in := booking.ValidInput(now)
	d := &mockDriver{}
	d.expectSubmit(baseURL, in)
	d.On("WaitVisible", booking.NotificationContent, mock.Anything).Return(nil)
	d.On("Text", booking.NotificationContent).Return("Встреча успешно забронирована на 01.01.2000", nil)

	res := New(d, quickOptions()).Run(context.Background(), Scenario{Name: "success", Input: in, Expect: booking.ExpectSuccess(in.Date)})

	var ae *AssertionError
	require.ErrorAs(t, res.Err, &ae)
	assert.Equal(t, "notification", ae.Region)
	assert.Equal(t, "Встреча успешно забронирована на 01.01.2000", ae.Actual)
	assert.True(t, errors.Is(res.Err, ErrAssertionMismatch))
}

func TestRunFieldError(t *testing.T) {
	in := booking.ValidInput(now).With(func(in *booking.Input) { in.City = "город" })
	want := booking.FieldError{Field: booking.FieldCity, Message: booking.MsgCityUnavailable}

	t.Run("inline error and hidden notification pass", func(t *testing.T) {
		d := &mockDriver{}
		d.expectSubmit(baseURL, in)
		d.On("Text", booking.FieldCity.Sub()).Return(" Доставка в выбранный город  недоступна\n", nil).Once()
		d.On("IsVisible", booking.NotificationRoot).Return(false, nil).Once()

		res := New(d, quickOptions()).Run(context.Background(), Scenario{Name: "city", Input: in, Expect: want})

		require.NoError(t, res.Err)
		assert.Equal(t, booking.MsgCityUnavailable, res.Observed)
		d.AssertExpectations(t)
	})

	t.Run("visible notification fails", func(t *testing.T) {
		d := &mockDriver{}
		d.expectSubmit(baseURL, in)
		d.On("Text", booking.FieldCity.Sub()).Return(booking.MsgCityUnavailable, nil)
		d.On("IsVisible", booking.NotificationRoot).Return(true, nil)
		d.On("Text", booking.NotificationContent).Return("Встреча успешно забронирована", nil)

		res := New(d, quickOptions()).Run(context.Background(), Scenario{Name: "city", Input: in, Expect: want})

		var ae *AssertionError
		require.ErrorAs(t, res.Err, &ae)
		assert.Equal(t, "notification", ae.Region)
		assert.Equal(t, "hidden", ae.Expected)
	})

	t.Run("missing inline error is a mismatch", func(t *testing.T) {
		d := &mockDriver{}
		d.expectSubmit(baseURL, in)
		d.On("Text", booking.FieldCity.Sub()).Return("", nil)

		res := New(d, quickOptions()).Run(context.Background(), Scenario{Name: "city", Input: in, Expect: want})

		assert.True(t, errors.Is(res.Err, ErrAssertionMismatch))
		d.AssertNotCalled(t, "IsVisible", booking.NotificationRoot)
	})
}

func TestRunAgreementUnchecked(t *testing.T) {
	in := booking.ValidInput(now).With(func(in *booking.Input) { in.AgreementChecked = false })

	d := &mockDriver{}
	d.expectSubmit(baseURL, in)
	d.On("Classes", booking.FieldAgreement.Root()).Return([]string{"checkbox", "input_invalid"}, nil).Once()
	d.On("IsVisible", booking.NotificationRoot).Return(false, nil).Once()

	res := New(d, quickOptions()).Run(context.Background(), Scenario{
		Name:   "agreement",
		Input:  in,
		Expect: booking.FieldError{Field: booking.FieldAgreement},
	})

	require.NoError(t, res.Err)
	d.AssertNotCalled(t, "Click", booking.AgreementBox)
	d.AssertExpectations(t)
}

func TestRunFieldErrorNeverShown(t *testing.T) {
	in := booking.ValidInput(now).With(func(in *booking.Input) { in.City = "город" })

	t.Run("inline error read times out", func(t *testing.T) {
		d := &mockDriver{}
		d.expectSubmit(baseURL, in)
		d.On("Text", booking.FieldCity.Sub()).Return("", fmt.Errorf("locator.innerText: %w", playwright.ErrTimeout))

		res := New(d, quickOptions()).Run(context.Background(), Scenario{
			Name:   "city",
			Input:  in,
			Expect: booking.FieldError{Field: booking.FieldCity, Message: booking.MsgCityUnavailable},
		})

		var te *TimeoutError
		require.ErrorAs(t, res.Err, &te)
		assert.Equal(t, "city", te.Region)
		assert.Equal(t, 60*time.Millisecond, te.Timeout)
		assert.True(t, errors.Is(res.Err, ErrTimeout))
		assert.False(t, errors.Is(res.Err, ErrAssertionMismatch))
		d.AssertNotCalled(t, "IsVisible", booking.NotificationRoot)
	})

	t.Run("agreement root never appears", func(t *testing.T) {
		unchecked := booking.ValidInput(now).With(func(in *booking.Input) { in.AgreementChecked = false })
		d := &mockDriver{}
		d.expectSubmit(baseURL, unchecked)
		d.On("Classes", booking.FieldAgreement.Root()).
			Return(nil, &TimeoutError{Region: booking.FieldAgreement.Root(), State: "visible", Timeout: 500 * time.Millisecond})

		res := New(d, quickOptions()).Run(context.Background(), Scenario{
			Name:   "agreement",
			Input:  unchecked,
			Expect: booking.FieldError{Field: booking.FieldAgreement},
		})

		assert.True(t, errors.Is(res.Err, ErrTimeout))
		assert.False(t, errors.Is(res.Err, ErrAssertionMismatch))
	})

	t.Run("read recovers and then mismatches", func(t *testing.T) {
		d := &mockDriver{}
		d.expectSubmit(baseURL, in)
		d.On("Text", booking.FieldCity.Sub()).Return("", fmt.Errorf("locator.innerText: %w", playwright.ErrTimeout)).Once()
		d.On("Text", booking.FieldCity.Sub()).Return("другая ошибка", nil)

		res := New(d, quickOptions()).Run(context.Background(), Scenario{
			Name:   "city",
			Input:  in,
			Expect: booking.FieldError{Field: booking.FieldCity, Message: booking.MsgCityUnavailable},
		})

		var ae *AssertionError
		require.ErrorAs(t, res.Err, &ae)
		assert.Equal(t, "другая ошибка", ae.Actual)
		assert.False(t, errors.Is(res.Err, ErrTimeout))
	})
}

func TestRunVisibleNotificationKeepsReadError(t *testing.T) {
	in := booking.ValidInput(now).With(func(in *booking.Input) { in.Phone = "111111" })
	readErr := errors.New("target closed")

	d := &mockDriver{}
	d.expectSubmit(baseURL, in)
	d.On("Text", booking.FieldPhone.Sub()).Return(booking.MsgPhoneInvalid, nil)
	d.On("IsVisible", booking.NotificationRoot).Return(true, nil)
	d.On("Text", booking.NotificationContent).Return("", readErr)

	res := New(d, quickOptions()).Run(context.Background(), Scenario{
		Name:   "phone",
		Input:  in,
		Expect: booking.FieldError{Field: booking.FieldPhone, Message: booking.MsgPhoneInvalid},
	})

	assert.ErrorIs(t, res.Err, readErr)
	assert.ErrorIs(t, res.Err, ErrAssertionMismatch)
}

func TestRunPollsUntilTextAppears(t *testing.T) {
	in := booking.ValidInput(now).With(func(in *booking.Input) { in.Phone = "111111" })

	d := &mockDriver{}
	d.expectSubmit(baseURL, in)
	d.On("Text", booking.FieldPhone.Sub()).Return("", nil).Twice()
	d.On("Text", booking.FieldPhone.Sub()).Return(booking.MsgPhoneInvalid, nil).Once()
	d.On("IsVisible", booking.NotificationRoot).Return(false, nil)

	opts := quickOptions()
	opts.AssertTimeout = time.Second
	res := New(d, opts).Run(context.Background(), Scenario{
		Name:   "phone",
		Input:  in,
		Expect: booking.FieldError{Field: booking.FieldPhone, Message: booking.MsgPhoneInvalid},
	})

	require.NoError(t, res.Err)
	d.AssertNumberOfCalls(t, "Text", 3)
}

func TestRunSubmitFailureTakesScreenshot(t *testing.T) {
	dir := t.TempDir()
	in := booking.ValidInput(now)

	d := &mockDriver{}
	d.On("Goto", baseURL).Return(errors.New("net::ERR_CONNECTION_REFUSED"))
	d.On("Screenshot", mock.AnythingOfType("string")).Return(nil)

	opts := quickOptions()
	opts.ArtifactsDir = dir
	opts.Screenshots = true
	res := New(d, opts).Run(context.Background(), Scenario{Name: "success / valid", Input: in, Expect: booking.ExpectSuccess(in.Date)})

	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "open form")
	assert.Equal(t, filepath.Join(dir, "screenshots", "run-1_success_valid.png"), res.Screenshot)
	_, err := os.Stat(filepath.Join(dir, "screenshots"))
	assert.NoError(t, err)
}

func TestSubmitHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &mockDriver{}
	err := New(d, quickOptions()).Submit(ctx, booking.ValidInput(now))

	assert.ErrorIs(t, err, context.Canceled)
	d.AssertNotCalled(t, "Goto", mock.Anything)
}

func TestRunAgainstFakeForm(t *testing.T) {
	valid := booking.ValidInput(now)
	scenarios := []Scenario{
		{"success", valid, booking.ExpectSuccess(valid.Date)},
		{"city", valid.With(func(in *booking.Input) { in.City = "город" }), booking.FieldError{Field: booking.FieldCity, Message: booking.MsgCityUnavailable}},
		{"date", valid.With(func(in *booking.Input) { in.Date = booking.InvalidDate(now) }), booking.FieldError{Field: booking.FieldDate, Message: booking.MsgDateImpossible}},
		{"name", valid.With(func(in *booking.Input) { in.FullName = "name" }), booking.FieldError{Field: booking.FieldName, Message: booking.MsgNameInvalid}},
		{"phone", valid.With(func(in *booking.Input) { in.Phone = "111111" }), booking.FieldError{Field: booking.FieldPhone, Message: booking.MsgPhoneInvalid}},
		{"agreement", valid.With(func(in *booking.Input) { in.AgreementChecked = false }), booking.FieldError{Field: booking.FieldAgreement}},
	}

	r := New(newFormFake(fakeRules()), quickOptions())
	results := r.RunAll(context.Background(), scenarios)

	require.Len(t, results, len(scenarios))
	for _, res := range results {
		assert.NoError(t, res.Err, res.Scenario)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	valid := booking.ValidInput(now)
	sc := Scenario{Name: "name", Input: valid.With(func(in *booking.Input) { in.FullName = "name" }),
		Expect: booking.FieldError{Field: booking.FieldName, Message: booking.MsgNameInvalid}}

	fake := newFormFake(fakeRules())
	r := New(fake, quickOptions())
	first := r.Run(context.Background(), sc)
	second := r.Run(context.Background(), sc)

	assert.Equal(t, first.Err, second.Err)
	assert.Equal(t, first.Observed, second.Observed)
	assert.Equal(t, 2, fake.submits)
}

func TestRunAllStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := New(newFormFake(fakeRules()), quickOptions()).RunAll(ctx, []Scenario{{Name: "x", Expect: booking.Success{}}})
	assert.Empty(t, results)
}

func TestNewDefaults(t *testing.T) {
	r := New(&mockDriver{}, Options{})
	assert.Equal(t, DefaultNotificationTimeout, r.opts.NotificationTimeout)
	assert.Equal(t, DefaultAssertTimeout, r.opts.AssertTimeout)
	assert.NotEmpty(t, r.RunID())
}
