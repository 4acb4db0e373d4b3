package common

// AuthorizationHeaderName is the HTTP header used to carry the bearer token
// on outbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerScheme prefixes the token inside the Authorization header.
const BearerScheme = "Bearer"

// GenericErrorMessage is shown whenever a failure carries no structured message.
const GenericErrorMessage = "Something went wrong!"
