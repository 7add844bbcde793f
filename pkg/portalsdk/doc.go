/*
Package portalsdk is a thin client for the employee self-service REST API.

It knows the three things the session layer has to reason about: the login
and refresh contracts, the bearer token on every other call, and the shape of
error bodies (status code, message, optional lockout and conflict details).
Everything else is passed through as raw JSON.

# Client

	client := portalsdk.NewClient("https://ess.example.com/api")

	login, err := client.Login(ctx, "jo@example.com", "secret")
	var apiErr *portalsdk.APIError
	if errors.As(err, &apiErr) {
		if d, locked := apiErr.Lockout(); locked {
			// show a countdown of d
		}
	}

	pair, err := client.Refresh(ctx, login.Token.RefreshToken)

Calls that are not part of the authentication contract go through Do, which
never turns a non-2xx status into an error. Classification of statuses is the
caller's job (see internal/portal/resilience):

	resp, err := client.Do(ctx, accessToken, portalsdk.Request{
		Method: http.MethodGet,
		Path:   "/employee/profile",
	})

# Errors

Login and Refresh return *APIError for non-2xx responses. Transport failures
are returned wrapped and never as *APIError, so callers can tell a rejected
refresh token (401) from a transient outage.

# Thread Safety

Client holds no mutable state and is safe for concurrent use.
*/
package portalsdk
