package sys

// --- Message Constants ---

const (
	// --- Infrastructure & Lifecycle ---
	MsgConfigFailedToLoad = "Failed to load config: %v"
	MsgConfigMissingToken = "DISCORD_TOKEN is not set in .env file"
	MsgConfigBadVolume    = "DEFAULT_VOLUME must be between 0 and 1, got %v"
	MsgBotStarting        = "Starting %s..."
	MsgBotReady           = "%s is ready! (ID: %s) (PID: %d) (Took: %dms)"
	MsgBotShutdown        = "Shutting down %s..."
	MsgBotRegisterFail    = "Command registration failed: %v"
	MsgBotGatewayFail     = "Failed to open gateway: %v"
	MsgGenericError       = "%v"

	// --- Command Loader & Registry ---
	MsgLoaderSyncCommands   = "Syncing %s commands..."
	MsgLoaderDevRegistered  = "[DEV] Registered: %s"
	MsgLoaderDevFail        = "[DEV] Registration failed: %w"
	MsgLoaderProdRegistered = "[PROD] Registered: %s"
	MsgLoaderProdFail       = "[PROD] Global registration failed: %w"
	MsgLoaderPanicRecovered = "Panic recovered in handler: %v"
	MsgLoaderDuplicate      = "Command %s registered twice"

	// --- Extraction ---
	MsgExtractCacheHit       = "[%s] Using cached extraction for: %s"
	MsgExtractRecentlyFailed = "[%s] Skipping recently failed URL: %s"
	MsgExtractAttempt        = "[%s] Attempt %d/%d, format: %s, clients: %v"
	MsgExtractSuccess        = "[%s] Extraction successful: %s (%s)"
	MsgExtractBotDetected    = "[%s] Bot detection on %s with %v, rotating strategy"
	MsgExtractUnavailable    = "[%s] Video unavailable, marking as failed: %s (%v)"
	MsgExtractFormatFailed   = "[%s] Format %s failed: %v"
	MsgExtractBackoff        = "[%s] Waiting %v before retry..."
	MsgExtractExhausted      = "[%s] All extraction strategies failed for: %s"
	MsgExtractTitleSearch    = "[%s] Recovering by title search: %s"
	MsgExtractTitleFailed    = "[%s] Title recovery failed for %s: %v"
	MsgExtractCacheTrimmed   = "Trimmed %d cached extractions (%d kept)"
	MsgExtractFailedCleared  = "Cleared failed URL set"

	// --- Metadata ---
	MsgMetadataEndpointFailed = "%s lookup failed for %s: %v"
	MsgMetadataResolved       = "Resolved %s via %s: %s"
	MsgMetadataPlaceholder    = "All metadata endpoints failed for %s, using placeholder"

	// --- Search ---
	MsgSearchQuery         = "Searching: %s"
	MsgSearchFound         = "Found: %s"
	MsgSearchNoResults     = "No search results for: %s"
	MsgSearchVariantFound  = "Found using variation: %s"
	MsgSearchDirectFailed  = "Direct URL failed (%v), attempting search fallback"
	MsgSearchSuggestFailed = "%s suggestions failed: %v"

	// --- Queue & Voice ---
	MsgQueueEnqueued      = "[%s] Enqueued %s (pending: %d)"
	MsgQueueNext          = "[%s] Next: %s"
	MsgQueueDrained       = "[%s] Queue drained"
	MsgVoiceJoining       = "Joining channel %s in guild %s"
	MsgVoiceJoinRetry     = "Retrying voice connection in %v (Attempt %d/5)"
	MsgVoiceJoinFailed    = "Failed to connect to voice in guild %s after 5 attempts: %v"
	MsgVoicePlaying       = "[%s] Playing: %s"
	MsgVoiceFinished      = "[%s] Track finished: %s (err: %v)"
	MsgVoicePlayFailed    = "[%s] Failed to start %s: %v"
	MsgVoiceTranscodeFail = "Transcoder %s failed: %v"
	MsgVoiceIdleLeave     = "[%s] Alone in channel, leaving after %v"
	MsgVoiceLeft          = "[%s] Left voice"
	MsgSessionPanic       = "[%s] Session crashed: %v"
	MsgSessionReaped      = "[%s] Dropped crashed session"

	// --- Status Server ---
	MsgStatusListening = "Status server listening on %s"
	MsgStatusFailed    = "Status server stopped: %v"
	MsgPresenceRotated = "Presence set to %q (next in %v)"
	MsgPresenceFailed  = "Failed to update presence: %v"

	// --- User Facing ---
	MsgUserNotInVoice     = "You need to be in a voice channel first."
	MsgUserNothingPlaying = "Nothing is playing right now."
	MsgUserQueued         = "Added to queue: [%s](%s) · position %d"
	MsgUserPlaying        = "Now playing: [%s](%s) `%s`"
	MsgUserDescriptive    = "Couldn't get a playable stream for **%s** by %s. %s"
	MsgUserResolveFailed  = "Couldn't play that: %v"
	MsgUserSkipped        = "Skipped. Up next: %s"
	MsgUserSkippedEnd     = "Skipped. The queue is empty."
	MsgUserStopped        = "Stopped and cleared the queue."
	MsgUserLeft           = "Disconnected."
	MsgUserJoined         = "Joined <#%s>."
	MsgUserPaused         = "Paused."
	MsgUserResumed        = "Resumed."
	MsgUserCleared        = "Queue cleared."
	MsgUserShuffled       = "Shuffled %d tracks."
	MsgUserLoopOn         = "Loop enabled for the current track."
	MsgUserLoopOff        = "Loop disabled."
	MsgUserVolume         = "Volume set to %d%%."
	MsgUserNoVolume       = "The current stream does not support volume control."
	MsgUserQueueEmpty     = "The queue is empty."
	MsgUserSearchEmpty    = "No results for **%s**."
	MsgUserBotBlocked     = "YouTube is blocking automated requests right now. Try a song title instead of a link."
	MsgUserRecentlyFailed = "That link failed recently, try again in a bit or search by title."
	MsgUserUnavailable    = "That video is unavailable, private, or restricted."
)
