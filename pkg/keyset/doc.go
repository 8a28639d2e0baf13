/*
Package keyset verifies Cognito-style JWTs against a remote JSON Web Key Set.

Keys are cached per KeySet and looked up by the token's "kid". A miss may
trigger a fetch of the key set, at most once per minimum fetch interval
(5 minutes by default); an explicit Prefetch always fetches.

	ks, err := keyset.New("us-east-1", "us-east-1_AbCdEf")
	if err != nil {
	    return err
	}
	v := ks.NewAccessTokenVerifier("client-id").Build()

	// May fetch the key set.
	claims, err := ks.Verify(ctx, token, v)

	// Never touches the network; KindCacheMiss when the key is not cached.
	claims, err = ks.TryVerify(token, v)

Errors are *Error values; use KindOf or errors.Is with the Err* sentinels.
A throttled or failed fetch is KindNetwork; errors.Is(err, ErrThrottled)
tells the two apart.
*/
package keyset
