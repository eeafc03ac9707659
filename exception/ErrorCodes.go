package exception

const IncorrectParamType = "5"
const IncorrectParamTypeMsg = "$param parameter should be $type"

const InvalidParameter = "6"
const InvalidParameterMsg = "Failed to read parameter $param"

const InvalidParameterValue = "7"
const InvalidParameterValueMsg = "Value '$value' is not allowed for parameter $param"
const InvalidLimitMsg = "Value '$value' is not allowed for parameter limit. Allowed values are in range 1:$maxLimit"
const InvalidItemsNumberMsg = "Parameter $param contains too many items. Maximum is $maxItems"
const InvalidParametersMsg = "Parameters have invalid values: $params"

const BadRequestBody = "10"
const BadRequestBodyMsg = "Failed to decode body"

const RequiredParamsMissing = "11"
const RequiredParamsMissingMsg = "Required parameters are missing: $params"

const InvalidURLEscape = "12"
const InvalidURLEscapeMsg = "Failed to unescape parameter $param"

const AuthenticationFailed = "100"
const AuthenticationFailedMsg = "Authentication failed: $reason"

const UnknownEntityType = "1100"
const UnknownEntityTypeMsg = "Entity type '$entityType' is not registered"

const EntityNotImportable = "1101"
const EntityNotImportableMsg = "Entity type '$entityType' does not support import"

const EntityNotExportable = "1102"
const EntityNotExportableMsg = "Entity type '$entityType' does not support export"

const UnparseableFile = "1200"
const UnparseableFileMsg = "File '$fileName' can not be parsed: $reason"

const EmptyFile = "1201"
const EmptyFileMsg = "File '$fileName' has no data rows"

const FileTooLarge = "1202"
const FileTooLargeMsg = "File '$fileName' exceeds the size limit of $limitMb Mb"

const UnsupportedFileType = "1203"
const UnsupportedFileTypeMsg = "File type of '$fileName' is not supported. Supported types: csv, xls, xlsx, json"

const MalformedFieldMapping = "1300"
const MalformedFieldMappingMsg = "Field mapping is malformed: $reason"

const ImportJobNotFound = "1400"
const ImportJobNotFoundMsg = "Import job with id $id not found"

const UnknownColumn = "1500"
const UnknownColumnMsg = "Column '$column' is not defined for entity type '$entityType'"

const ExportTooLarge = "1501"
const ExportTooLargeMsg = "Export contains $count records which exceeds the limit of $limit"

const ExportJobNotFound = "1502"
const ExportJobNotFoundMsg = "Export job with id $id not found"

const ExportNotReady = "1503"
const ExportNotReadyMsg = "Export job $id is not completed yet (status: $status)"

const ExportExpired = "1504"
const ExportExpiredMsg = "Export job $id has expired"

const InvalidExportFilter = "1505"
const InvalidExportFilterMsg = "Filter '$filter' is invalid: $reason"

const DuplicateNotFound = "1600"
const DuplicateNotFoundMsg = "Duplicate record with id $id not found"

const DuplicateAlreadyResolved = "1601"
const DuplicateAlreadyResolvedMsg = "Duplicate record $id is already $status"

const InvalidMergePair = "1602"
const InvalidMergePairMsg = "Records $keepId and $mergeId do not form duplicate pair $id"

const DetectionAlreadyRunning = "1603"
const DetectionAlreadyRunningMsg = "Duplicate detection for '$entityType' is already running"

const RecordNotFound = "1700"
const RecordNotFoundMsg = "Record $id of type '$entityType' not found"

const ArchivedRecordNotFound = "1701"
const ArchivedRecordNotFoundMsg = "Archived record with id $id not found"

const RestoreConflict = "1702"
const RestoreConflictMsg = "Record $id of type '$entityType' already exists and can not be restored"

const InvalidArchiveReason = "1703"
const InvalidArchiveReasonMsg = "Archive reason '$reason' is not allowed"

const TooManyRecordIds = "1704"
const TooManyRecordIdsMsg = "Too many record ids: $count. Maximum is $max"

const NoValidUpdateFields = "1705"
const NoValidUpdateFieldsMsg = "No valid fields to update"

const InvalidUpdateValue = "1706"
const InvalidUpdateValueMsg = "Value for field '$field' is invalid: $reason"

const GdprRequestNotFound = "1800"
const GdprRequestNotFoundMsg = "GDPR request with id $id not found"

const InvalidGdprAction = "1801"
const InvalidGdprActionMsg = "Action '$action' is not allowed"

const GdprRequestClosed = "1802"
const GdprRequestClosedMsg = "GDPR request $id is already $status"

const GdprExportNotAllowed = "1803"
const GdprExportNotAllowedMsg = "Data export is not allowed for request type '$type'"

const DetectionNotSupported = "1604"
const DetectionNotSupportedMsg = "Duplicate detection is not configured for entity type '$entityType'"

const CleanupJobNotFound = "1900"
const CleanupJobNotFoundMsg = "Cleanup job '$jobType' does not exist"

